package models

import (
	"time"
)

// SocialPost records one published (or attempted) post of a video to a
// connected account. Metric columns are refreshed by the platform sync
// job and feed the per-account analytics aggregation.
type SocialPost struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	AccountID uint          `gorm:"not null;index" json:"account_id"`
	Account   SocialAccount `gorm:"foreignKey:AccountID" json:"-"`
	VideoID   *uint         `gorm:"index" json:"video_id,omitempty"`

	PlatformPostID string    `json:"platform_post_id,omitempty"`
	Status         string    `gorm:"default:'posted'" json:"status"`
	PostedAt       time.Time `gorm:"index" json:"posted_at"`

	Views    int64 `gorm:"default:0" json:"views"`
	Likes    int64 `gorm:"default:0" json:"likes"`
	Comments int64 `gorm:"default:0" json:"comments"`
	Shares   int64 `gorm:"default:0" json:"shares"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SocialPost) TableName() string {
	return "social_posts"
}
