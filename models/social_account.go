package models

import (
	"time"
)

// Supported posting platforms.
const (
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
)

// KnownPlatform reports whether p is a platform this service can post to.
func KnownPlatform(p string) bool {
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram:
		return true
	}
	return false
}

type SocialAccount struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Platform        string `gorm:"not null;index" json:"platform"`
	AccountID       string `gorm:"not null" json:"account_id"`
	AccountName     string `json:"account_name"`
	AccountUsername string `json:"account_username"`
	ProfilePicture  string `json:"profile_picture,omitempty"`

	// Credential material. Never serialized in API responses.
	AccessToken    string     `gorm:"not null" json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `gorm:"index" json:"-"`

	FollowerCount int64 `gorm:"default:0" json:"follower_count"`
	IsVerified    bool  `gorm:"default:false" json:"is_verified"`
	IsActive      bool  `gorm:"default:true" json:"is_active"`
	AutoPost      bool  `gorm:"default:true" json:"auto_post"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SocialAccount) TableName() string {
	return "social_accounts"
}

// TokenExpiringWithin reports whether the stored access token expires
// inside the given window and a refresh token is available to renew it.
func (a *SocialAccount) TokenExpiringWithin(d time.Duration) bool {
	if a.RefreshToken == "" || a.TokenExpiresAt == nil {
		return false
	}
	return a.TokenExpiresAt.Before(time.Now().Add(d))
}
