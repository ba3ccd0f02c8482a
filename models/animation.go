package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnimationStatus is the lifecycle state of one generation job.
// Allowed transitions: pending -> processing -> completed | failed.
// completed and failed are terminal.
type AnimationStatus string

const (
	StatusPending    AnimationStatus = "pending"
	StatusProcessing AnimationStatus = "processing"
	StatusCompleted  AnimationStatus = "completed"
	StatusFailed     AnimationStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s AnimationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Quality levels accepted for rendering. Low renders fastest, high looks best.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// ValidQuality reports whether q is one of the accepted quality levels.
func ValidQuality(q string) bool {
	return q == QualityLow || q == QualityMedium || q == QualityHigh
}

// Animation is one generation job and its outcome. Version is unique per
// conversation and assigned at creation; it is never renumbered.
type Animation struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_version,priority:1" json:"conversation_id"`
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Query          string          `gorm:"type:text;not null" json:"query"`
	GeneratedCode  string          `gorm:"type:text" json:"generated_code"`
	VideoURL       string          `gorm:"size:255" json:"video_url"`
	Version        int             `gorm:"not null;uniqueIndex:idx_conversation_version,priority:2" json:"version"`
	Quality        string          `gorm:"size:10;not null;default:low" json:"quality"`
	Status         AnimationStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Progress       float64         `gorm:"not null;default:0" json:"progress"`
	StatusMessage  string          `gorm:"type:text" json:"status_message,omitempty"`
	Success        bool            `gorm:"not null;default:false" json:"success"`
	ErrorMessage   string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"-"`
}

func (a *Animation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
