package models

import (
	"time"
)

type Series struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	// Generation template applied to every video produced from this series.
	VisualStyle           string `gorm:"default:'realistic'" json:"visual_style"`
	VoiceStyle            string `gorm:"default:'natural'" json:"voice_style"`
	MusicStyle            string `gorm:"default:'ambient'" json:"music_style"`
	ContentStyle          string `gorm:"type:text" json:"content_style"`
	VideoDuration         int    `gorm:"default:60" json:"video_duration"`
	PostsPerDay           int    `gorm:"not null;default:1" json:"posts_per_day"`
	PostingSchedule       string `json:"posting_schedule,omitempty"`
	IncludeTrendingTopics bool   `gorm:"default:false" json:"include_trending_topics"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Running counters. Never decremented; all writes go through atomic
	// SQL increments or explicit overrides from the stats endpoint.
	TotalVideosGenerated int   `gorm:"default:0" json:"total_videos_generated"`
	TotalViews           int64 `gorm:"default:0" json:"total_views"`
	TotalLikes           int64 `gorm:"default:0" json:"total_likes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Series) TableName() string {
	return "series"
}
