package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageTypeUser marks a message written by the user, MessageTypeAI one
// produced by the assistant.
const (
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;index;not null" json:"conversation_id"`
	UserID         string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Type           string    `gorm:"size:20;not null" json:"type"`
	AnimationID    *string   `gorm:"type:uuid;constraint:OnDelete:SET NULL" json:"animation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
