package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhishekgusain07/studioanimations.app/models"
)

// CreateMessage appends a message to a conversation the user owns. An
// optional animation id links the message to a generated animation.
func (s *Store) CreateMessage(conversationID, userID, content, msgType string, animationID *string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if msgType != models.MessageTypeUser && msgType != models.MessageTypeAI {
		return nil, fmt.Errorf("%w: type must be 'user' or 'ai'", ErrValidation)
	}
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: conversation_id is required", ErrValidation)
	}

	conv, err := s.ResolveOrCreate(userID, conversationID, "")
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ConversationID: conv.ID,
		UserID:         userID,
		Content:        content,
		Type:           msgType,
		AnimationID:    animationID,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.db.Model(conv).Update("updated_at", time.Now()).Error; err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	return &msg, nil
}

// ListMessages returns messages for an owned conversation in chronological
// order, along with the total count for pagination.
func (s *Store) ListMessages(conversationID, userID string, skip, limit int) ([]models.Message, int64, error) {
	var conv models.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, 0, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	var total int64
	if err := s.db.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	var msgs []models.Message
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Offset(clampSkip(skip)).
		Limit(clampLimit(limit)).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return msgs, total, nil
}
