package service

import (
	"context"
	"strings"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	notConfiguredReply = "AI assistant is not configured. Please add your OPENAI_API_KEY to use this feature."
	assistantPrompt    = `You are an expert pharmacist assistant. Provide accurate, helpful information about:
- Drug information, usage, and dosages
- Drug interactions and contraindications
- Side effects and warnings
- Medical conditions and treatments
- Medication safety and storage
Always be clear, professional, and remind users to consult healthcare professionals for personalized advice.`

	chatHistoryLimit = 20
	sessionTitleLen  = 50
)

// LLM is the completion backend. *infra.LLMClient satisfies it.
type LLM interface {
	Configured() bool
	Complete(ctx context.Context, messages []infra.LLMMessage) (string, error)
}

type AssistantService interface {
	Chat(ctx context.Context, auth AuthContext, req dto.ChatRequest) (*dto.ChatResponse, error)
}

type assistantService struct {
	chats repository.ChatRepository
	llm   LLM
}

func NewAssistantService(chats repository.ChatRepository, llm LLM) AssistantService {
	return &assistantService{chats: chats, llm: llm}
}

// Chat stores the user's message, asks the model and stores the reply. No
// transaction is held while the provider is called.
func (s *assistantService) Chat(ctx context.Context, auth AuthContext, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, validationf("message is required")
	}

	session, err := s.session(ctx, auth, req.SessionID, message)
	if err != nil {
		return nil, err
	}

	if err := s.chats.AddMessage(ctx, &model.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      "user",
		Content:   message,
	}); err != nil {
		return nil, storageErr("save user message", err)
	}

	reply := s.reply(ctx, session.ID, message)

	if err := s.chats.AddMessage(ctx, &model.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      "assistant",
		Content:   reply,
	}); err != nil {
		return nil, storageErr("save assistant message", err)
	}

	return &dto.ChatResponse{SessionID: session.ID.String(), Response: reply}, nil
}

func (s *assistantService) session(ctx context.Context, auth AuthContext, sessionID *string, message string) (*model.ChatSession, error) {
	if sessionID != nil && *sessionID != "" {
		id, err := uuid.Parse(*sessionID)
		if err != nil {
			return nil, validationf("session_id is not a valid id")
		}
		sess, err := s.chats.FindSession(ctx, auth.OrganizationID, auth.UserID, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, notFoundf("chat session %s not found", id)
			}
			return nil, storageErr("find chat session", err)
		}
		return sess, nil
	}

	title := []rune(message)
	if len(title) > sessionTitleLen {
		title = title[:sessionTitleLen]
	}
	sess := &model.ChatSession{
		ID:             uuid.New(),
		OrganizationID: auth.OrganizationID,
		UserID:         auth.UserID,
		Title:          string(title),
	}
	if err := s.chats.CreateSession(ctx, sess); err != nil {
		return nil, storageErr("create chat session", err)
	}
	return sess, nil
}

// reply never fails: provider errors become the assistant's answer so the
// conversation stays consistent.
func (s *assistantService) reply(ctx context.Context, sessionID uuid.UUID, message string) string {
	if s.llm == nil || !s.llm.Configured() {
		infra.LLMRequests.WithLabelValues("not_configured").Inc()
		return notConfiguredReply
	}

	messages := []infra.LLMMessage{{Role: "system", Content: assistantPrompt}}
	history, err := s.chats.RecentMessages(ctx, sessionID, chatHistoryLimit)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("chat history unavailable")
		history = []model.ChatMessage{{Role: "user", Content: message}}
	}
	for _, m := range history {
		messages = append(messages, infra.LLMMessage{Role: m.Role, Content: m.Content})
	}

	out, err := s.llm.Complete(ctx, messages)
	if err != nil {
		infra.LLMRequests.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("llm completion failed")
		return "I'm sorry, I encountered an error: " + err.Error()
	}
	infra.LLMRequests.WithLabelValues("ok").Inc()
	return out
}
