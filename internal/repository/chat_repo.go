package repository

import (
	"context"

	"pharmacyos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository interface {
	CreateSession(ctx context.Context, s *model.ChatSession) error
	// FindSession only returns sessions owned by the given user.
	FindSession(ctx context.Context, orgID, userID, id uuid.UUID) (*model.ChatSession, error)
	AddMessage(ctx context.Context, m *model.ChatMessage) error
	// RecentMessages returns up to limit messages, oldest first.
	RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]model.ChatMessage, error)
}

type chatRepo struct{ db *gorm.DB }

func NewChatRepository(db *gorm.DB) ChatRepository { return &chatRepo{db: db} }

func (r *chatRepo) CreateSession(ctx context.Context, s *model.ChatSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *chatRepo) FindSession(ctx context.Context, orgID, userID, id uuid.UUID) (*model.ChatSession, error) {
	var s model.ChatSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ? AND user_id = ?", id, orgID, userID).
		First(&s).Error
	return &s, err
}

func (r *chatRepo) AddMessage(ctx context.Context, m *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *chatRepo) RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
