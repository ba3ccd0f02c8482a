package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/abhishekgusain07/studioanimations.app/models"
	utils "github.com/abhishekgusain07/studioanimations.app/pkg/utills"
)

// CreateAnimation persists a new pending animation, reserving the next
// version number for the conversation inside the same transaction. The
// unique index on (conversation_id, version) is the arbiter: when two
// concurrent submissions race for the same version, the loser retries with
// a fresh read, so versions are never duplicated and never skipped.
func (s *Store) CreateAnimation(conversationID, userID, query, quality string) (*models.Animation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if !utils.HasLetter(query) {
		return nil, fmt.Errorf("%w: query must describe a scene in words", ErrValidation)
	}
	if !models.ValidQuality(quality) {
		return nil, fmt.Errorf("%w: quality must be one of low, medium, high", ErrValidation)
	}

	const maxAttempts = 5
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		anim, err := s.createAnimationOnce(conversationID, userID, query, quality)
		if err == nil {
			return anim, nil
		}
		if !isVersionConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("create animation: version contention: %w", lastErr)
}

func isVersionConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

func (s *Store) createAnimationOnce(conversationID, userID, query, quality string) (*models.Animation, error) {
	var anim models.Animation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Where("id = ? AND user_id = ?", conversationID, userID).
			First(&conv).Error; err != nil {
			if isRecordNotFound(err) {
				return fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
			}
			return fmt.Errorf("load conversation: %w", err)
		}

		var maxVersion int
		if err := tx.Model(&models.Animation{}).
			Where("conversation_id = ?", conversationID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("reserve version: %w", err)
		}

		anim = models.Animation{
			ConversationID: conversationID,
			UserID:         userID,
			Query:          query,
			Quality:        quality,
			Version:        maxVersion + 1,
			Status:         models.StatusPending,
			Progress:       0,
		}
		if err := tx.Create(&anim).Error; err != nil {
			return fmt.Errorf("create animation: %w", err)
		}

		// any animation insertion counts as conversation activity
		if err := tx.Model(&conv).Update("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &anim, nil
}

// GetAnimation loads an animation scoped to its owner.
func (s *Store) GetAnimation(animationID, userID string) (*models.Animation, error) {
	var anim models.Animation
	if err := s.db.Where("id = ? AND user_id = ?", animationID, userID).First(&anim).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("%w: animation %s", ErrNotFound, animationID)
		}
		return nil, fmt.Errorf("get animation: %w", err)
	}
	return &anim, nil
}

// MarkProcessing moves a pending animation into processing. It is a no-op
// returning an error if the animation already left pending, so a job can
// never be picked up twice.
func (s *Store) MarkProcessing(animationID string) error {
	res := s.db.Model(&models.Animation{}).
		Where("id = ? AND status = ?", animationID, models.StatusPending).
		Updates(map[string]any{
			"status":         models.StatusProcessing,
			"progress":       0,
			"status_message": "Generating animation...",
		})
	if res.Error != nil {
		return fmt.Errorf("mark processing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: animation %s is not pending", ErrNotFound, animationID)
	}
	return nil
}

// SetProgress writes a progress snapshot for an animation that is still
// processing. Progress is clamped to [0, 100] and never moves backwards;
// writes against terminal records are silently dropped.
func (s *Store) SetProgress(animationID string, progress float64, statusMessage string) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	res := s.db.Model(&models.Animation{}).
		Where("id = ? AND status = ? AND progress <= ?", animationID, models.StatusProcessing, progress).
		Updates(map[string]any{
			"progress":       progress,
			"status_message": statusMessage,
		})
	if res.Error != nil {
		return fmt.Errorf("set progress: %w", res.Error)
	}
	return nil
}

// MarkCompleted writes the terminal success snapshot: status, progress=100,
// video URL and success flag change together so pollers never observe a
// half-written completion.
func (s *Store) MarkCompleted(animationID, videoURL string) error {
	if strings.TrimSpace(videoURL) == "" {
		return fmt.Errorf("%w: completed animation requires a video url", ErrValidation)
	}
	res := s.db.Model(&models.Animation{}).
		Where("id = ? AND status = ?", animationID, models.StatusProcessing).
		Updates(map[string]any{
			"status":         models.StatusCompleted,
			"progress":       100,
			"video_url":      videoURL,
			"success":        true,
			"status_message": "Animation generated successfully",
			"error_message":  "",
		})
	if res.Error != nil {
		return fmt.Errorf("mark completed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: animation %s is not processing", ErrNotFound, animationID)
	}
	return nil
}

// MarkFailed writes the terminal failure snapshot. Progress is left at its
// last known value so the client can see how far the job got.
func (s *Store) MarkFailed(animationID, errorMessage string) error {
	if strings.TrimSpace(errorMessage) == "" {
		errorMessage = "internal error"
	}
	res := s.db.Model(&models.Animation{}).
		Where("id = ? AND status IN ?", animationID, []models.AnimationStatus{models.StatusPending, models.StatusProcessing}).
		Updates(map[string]any{
			"status":         models.StatusFailed,
			"success":        false,
			"status_message": errorMessage,
			"error_message":  errorMessage,
		})
	if res.Error != nil {
		return fmt.Errorf("mark failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: animation %s already terminal", ErrNotFound, animationID)
	}
	return nil
}

// SetGeneratedCode stores the code produced for the animation before
// rendering starts.
func (s *Store) SetGeneratedCode(animationID, code string) error {
	if err := s.db.Model(&models.Animation{}).
		Where("id = ?", animationID).
		Update("generated_code", code).Error; err != nil {
		return fmt.Errorf("set generated code: %w", err)
	}
	return nil
}

// AnimationStatusView is the flattened wire shape served to pollers. The
// video URL is only exposed once the animation completed.
type AnimationStatusView struct {
	ID            string                 `json:"id"`
	Status        models.AnimationStatus `json:"status"`
	Progress      float64                `json:"progress"`
	StatusMessage string                 `json:"status_message,omitempty"`
	VideoURL      string                 `json:"video_url,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// GetStatus is the polling read. It is a pure store read and never touches
// the runner.
func (s *Store) GetStatus(animationID, userID string) (*AnimationStatusView, error) {
	anim, err := s.GetAnimation(animationID, userID)
	if err != nil {
		return nil, err
	}

	view := AnimationStatusView{
		ID:            anim.ID,
		Status:        anim.Status,
		Progress:      anim.Progress,
		StatusMessage: anim.StatusMessage,
		CreatedAt:     anim.CreatedAt,
	}
	if anim.Status == models.StatusCompleted {
		view.VideoURL = anim.VideoURL
	}
	return &view, nil
}
