package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription statuses mirrored from the billing provider.
const (
	SubscriptionFree     = "free"
	SubscriptionTrial    = "trial"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`

	FullName            string `json:"full_name"`
	BusinessName        string `json:"business_name,omitempty"`
	BusinessDescription string `gorm:"type:text" json:"business_description,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Picture             string `json:"picture,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Billing fields kept in sync by the stripe webhook handler.
	StripeCustomerID   *string    `gorm:"uniqueIndex" json:"stripe_customer_id,omitempty"`
	SubscriptionStatus string     `gorm:"default:free" json:"subscription_status"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsSubscribed reports whether the user currently holds a paid or trial plan.
func (u *User) IsSubscribed() bool {
	if u.SubscriptionStatus != SubscriptionActive && u.SubscriptionStatus != SubscriptionTrial {
		return false
	}
	if u.SubscriptionEndsAt != nil && u.SubscriptionEndsAt.Before(time.Now()) {
		return false
	}
	return true
}
