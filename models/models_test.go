package models

import (
	"testing"
	"time"
)

func TestIsSubscribed(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name   string
		status string
		endsAt *time.Time
		want   bool
	}{
		{"free", SubscriptionFree, nil, false},
		{"canceled", SubscriptionCanceled, nil, false},
		{"active no end", SubscriptionActive, nil, true},
		{"active future end", SubscriptionActive, &future, true},
		{"active lapsed", SubscriptionActive, &past, false},
		{"trial", SubscriptionTrial, &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{SubscriptionStatus: tt.status, SubscriptionEndsAt: tt.endsAt}
			if got := u.IsSubscribed(); got != tt.want {
				t.Fatalf("IsSubscribed = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestNormalizeVideoStatus(t *testing.T) {
	tests := []struct{ in, want string }{
		{"generating", VideoStatusProcessing},
		{"ready", VideoStatusCompleted},
		{"queued", VideoStatusQueued},
		{"processing", VideoStatusProcessing},
		{"completed", VideoStatusCompleted},
		{"failed", VideoStatusFailed},
	}
	for _, tt := range tests {
		if got := NormalizeVideoStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeVideoStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenExpiringWithin(t *testing.T) {
	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)

	tests := []struct {
		name    string
		account SocialAccount
		want    bool
	}{
		{"expiring with refresh token", SocialAccount{RefreshToken: "r", TokenExpiresAt: &soon}, true},
		{"expiring without refresh token", SocialAccount{TokenExpiresAt: &soon}, false},
		{"far from expiry", SocialAccount{RefreshToken: "r", TokenExpiresAt: &far}, false},
		{"no expiry recorded", SocialAccount{RefreshToken: "r"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.TokenExpiringWithin(24 * time.Hour); got != tt.want {
				t.Fatalf("TokenExpiringWithin = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestKnownPlatform(t *testing.T) {
	for _, p := range []string{PlatformYouTube, PlatformTikTok, PlatformInstagram} {
		if !KnownPlatform(p) {
			t.Errorf("KnownPlatform(%q) = false", p)
		}
	}
	if KnownPlatform("myspace") {
		t.Error("KnownPlatform(myspace) = true")
	}
}
