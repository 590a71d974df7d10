package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	chatHistoryLimit = 50
	maxMessageLength = 1000
)

var ErrNotMatched = errors.New("you can only chat with your matches")

// Notifier pushes a typed event to a user's live sockets.
type Notifier interface {
	Notify(userID uuid.UUID, kind string, data interface{})
}

type ChatService struct {
	db         *gorm.DB
	moderation *ModerationService
	notifier   Notifier
}

func NewChatService(db *gorm.DB, moderation *ModerationService, notifier Notifier) *ChatService {
	return &ChatService{db: db, moderation: moderation, notifier: notifier}
}

// GetChat returns the pair's chat with its latest messages, creating the
// chat on first access.
func (s *ChatService) GetChat(ctx context.Context, viewerID, otherID uuid.UUID) (*dto.ChatResponse, error) {
	if err := s.ensureMatched(ctx, viewerID, otherID); err != nil {
		return nil, err
	}

	var other models.User
	if err := s.db.WithContext(ctx).First(&other, "id = ?", otherID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	chat, err := s.getOrCreate(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("chat_id = ?", chat.ID).
		Order("created_at DESC").
		Limit(chatHistoryLimit).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &dto.ChatResponse{ID: chat.ID, With: dto.NewPublicProfile(&other), Messages: messages}, nil
}

// SendMessage stores a message and pushes it to both participants.
func (s *ChatService) SendMessage(ctx context.Context, senderID, targetID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("message cannot be empty")
	}
	if len(text) > maxMessageLength {
		return nil, validationError(fmt.Sprintf("message must be at most %d characters", maxMessageLength))
	}
	if err := s.moderation.CheckText(text); err != nil {
		return nil, err
	}
	if err := s.ensureMatched(ctx, senderID, targetID); err != nil {
		return nil, err
	}

	chat, err := s.getOrCreate(ctx, senderID, targetID)
	if err != nil {
		return nil, err
	}

	msg := models.ChatMessage{ID: uuid.New(), ChatID: chat.ID, SenderID: senderID, Text: text}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).Where("id = ?", chat.ID).Update("updated_at", msg.CreatedAt).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Notify(targetID, "message", msg)
		s.notifier.Notify(senderID, "message", msg)
	}
	return &msg, nil
}

func (s *ChatService) ensureMatched(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		return matching.ErrInvalidSelfTarget
	}
	blocked, err := isBlockedPair(s.db.WithContext(ctx), a, b)
	if err != nil {
		return err
	}
	if blocked {
		return matching.ErrBlocked
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ConnectionRequest{}).
		Where("pair_key = ? AND status = ?", models.PairKey(a, b), models.StatusAccepted).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMatched
	}
	return nil
}

func (s *ChatService) getOrCreate(ctx context.Context, a, b uuid.UUID) (*models.Chat, error) {
	key := models.PairKey(a, b)
	first, second := a, b
	if first.String() > second.String() {
		first, second = second, first
	}

	db := s.db.WithContext(ctx)
	chat := models.Chat{PairKey: key, UserAID: first, UserBID: second}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	var stored models.Chat
	if err := db.Where("pair_key = ?", key).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
