package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrLLMNotConfigured is returned when no API key was provided.
var ErrLLMNotConfigured = errors.New("llm: provider not configured")

// LLMMessage is one turn of a chat completion conversation.
type LLMMessage struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string       `json:"model"`
	Messages    []LLMMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message LLMMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// LLMClient talks to any OpenAI-compatible /chat/completions endpoint.
// Calls go through a circuit breaker so a failing provider does not stall
// request handlers for the full HTTP timeout on every call.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewLLMClient(baseURL, apiKey, model string, breaker *CircuitBreaker) *LLMClient {
	if breaker == nil {
		breaker = NewCircuitBreaker(BreakerConfig{Name: "llm"})
	}
	return &LLMClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
	}
}

// Configured reports whether an API key is present.
func (c *LLMClient) Configured() bool { return c != nil && c.apiKey != "" }

// Complete sends the conversation and returns the first choice's content.
func (c *LLMClient) Complete(ctx context.Context, messages []LLMMessage) (string, error) {
	if !c.Configured() {
		return "", ErrLLMNotConfigured
	}

	var reply string
	err := c.breaker.Execute(func() error {
		var err error
		reply, err = c.do(ctx, messages)
		return err
	})
	return reply, err
}

func (c *LLMClient) do(ctx context.Context, messages []LLMMessage) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("llm: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return "", fmt.Errorf("llm: provider returned %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("llm: provider returned %d", resp.StatusCode)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("llm: empty completion")
	}
	return result.Choices[0].Message.Content, nil
}
