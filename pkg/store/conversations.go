package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekgusain07/studioanimations.app/models"
	utils "github.com/abhishekgusain07/studioanimations.app/pkg/utills"
)

// CreateConversation creates a new conversation for userID. When title is
// empty a title is derived from initialPrompt, falling back to a generated
// placeholder.
func (s *Store) CreateConversation(userID, title, initialPrompt string) (*models.Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = utils.TitleFromPrompt(initialPrompt)
	}
	if title == "" {
		title = "Conversation " + uuid.NewString()[:8]
	}

	conv := models.Conversation{UserID: userID, Title: title}
	if err := s.db.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &conv, nil
}

// ResolveOrCreate returns the conversation with conversationID owned by
// userID, or creates a fresh one when conversationID is empty. A given id
// that does not match an owned conversation is ErrNotFound, never an
// implicit create.
func (s *Store) ResolveOrCreate(userID, conversationID, initialPrompt string) (*models.Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if conversationID == "" {
		return s.CreateConversation(userID, "", initialPrompt)
	}

	var conv models.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	return &conv, nil
}

// RenameConversation updates the title and bumps updated_at.
func (s *Store) RenameConversation(conversationID, userID, newTitle string) (*models.Conversation, error) {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	var conv models.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("rename conversation: %w", err)
	}

	conv.Title = newTitle
	conv.UpdatedAt = time.Now()
	if err := s.db.Save(&conv).Error; err != nil {
		return nil, fmt.Errorf("rename conversation: %w", err)
	}
	return &conv, nil
}

// DeleteConversation removes the conversation and, through the cascade
// constraint, every animation and message it owns. The delete is atomic: no
// orphaned animations are ever observable.
func (s *Store) DeleteConversation(conversationID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
			if isRecordNotFound(err) {
				return fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
			}
			return fmt.Errorf("delete conversation: %w", err)
		}
		// sqlite does not always enforce FK cascades depending on pragma
		// state, so delete children explicitly inside the transaction.
		if err := tx.Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete conversation messages: %w", err)
		}
		if err := tx.Where("conversation_id = ?", conv.ID).Delete(&models.Animation{}).Error; err != nil {
			return fmt.Errorf("delete conversation animations: %w", err)
		}
		if err := tx.Delete(&conv).Error; err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		return nil
	})
}

// ListConversations returns the user's conversations ordered by most recent
// activity first.
func (s *Store) ListConversations(userID string, skip, limit int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset(clampSkip(skip)).
		Limit(clampLimit(limit)).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// GetConversationWithAnimations loads a conversation and its animations
// ordered by version ascending.
func (s *Store) GetConversationWithAnimations(conversationID, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Preload("Animations", func(db *gorm.DB) *gorm.DB {
		return db.Order("version ASC")
	}).Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// SidebarEntry is the read-optimized projection used by the conversation
// list in the UI.
type SidebarEntry struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	LastActive     time.Time `json:"last_active"`
	Preview        string    `json:"preview"`
	AnimationCount int       `json:"animation_count"`
}

// Sidebar returns conversation summaries for userID ordered by last activity
// descending. Preview is the query of the newest animation, truncated.
func (s *Store) Sidebar(userID string, skip, limit int) ([]SidebarEntry, error) {
	var convs []models.Conversation
	err := s.db.Preload("Animations", func(db *gorm.DB) *gorm.DB {
		return db.Order("version ASC")
	}).Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset(clampSkip(skip)).
		Limit(clampLimit(limit)).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("sidebar: %w", err)
	}

	entries := make([]SidebarEntry, 0, len(convs))
	for _, conv := range convs {
		preview := ""
		if n := len(conv.Animations); n > 0 {
			preview = utils.TruncateRunes(conv.Animations[n-1].Query, 80)
		}
		entries = append(entries, SidebarEntry{
			ConversationID: conv.ID,
			Title:          conv.Title,
			LastActive:     conv.UpdatedAt,
			Preview:        preview,
			AnimationCount: len(conv.Animations),
		})
	}
	return entries, nil
}
