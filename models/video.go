package models

import (
	"time"
)

// Video generation lifecycle. Queued videos wait for the worker; the
// worker advances them to processing and then to a terminal state.
const (
	VideoStatusQueued     = "queued"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// Generation priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// NormalizeVideoStatus folds the legacy aliases still sent by older
// clients ("generating", "ready") onto the canonical status values.
func NormalizeVideoStatus(s string) string {
	switch s {
	case "generating":
		return VideoStatusProcessing
	case "ready":
		return VideoStatusCompleted
	default:
		return s
	}
}

type Video struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	SeriesID uint   `gorm:"not null;index" json:"series_id"`
	Series   Series `gorm:"foreignKey:SeriesID" json:"-"`
	// Denormalized owner, always equal to the owning series' user.
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Title      string   `gorm:"size:255" json:"title"`
	Script     string   `gorm:"type:text" json:"script,omitempty"`
	Tags       []string `gorm:"serializer:json" json:"tags,omitempty"`
	PromptUsed string   `gorm:"type:text" json:"prompt_used,omitempty"`

	// Media fields, populated once generation completes.
	VideoURL     string `json:"video_url,omitempty"`
	DurationSecs int    `json:"duration_secs,omitempty"`
	Resolution   string `json:"resolution,omitempty"`

	Status       string `gorm:"default:'queued';index" json:"status"`
	Progress     int    `gorm:"default:0" json:"progress"`
	ErrorMessage string `json:"error_message,omitempty"`
	Priority     string `gorm:"default:'normal'" json:"priority"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Video) TableName() string {
	return "videos"
}
