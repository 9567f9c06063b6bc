package socials

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/api"
	"github.com/jaider012/easy-reals/internal/testutil"
	"github.com/jaider012/easy-reals/models"
)

const (
	ownerID = uint(1)
	otherID = uint(2)
)

func setup(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.NewDB(t)

	for _, u := range []models.User{
		{ID: ownerID, Email: "owner@example.com", FullName: "Owner", IsActive: true},
		{ID: otherID, Email: "other@example.com", FullName: "Other", IsActive: true},
	} {
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seeding user: %v", err)
		}
	}

	h := NewHandler(db, zerolog.Nop())
	r := testutil.NewRouter()
	r.POST("/social-accounts", h.Connect)
	r.GET("/social-accounts", h.ListAccounts)
	r.GET("/social-accounts/:id", h.GetAccount)
	r.PUT("/social-accounts/:id/tokens", h.UpdateTokens)
	r.PUT("/social-accounts/:id/metrics", h.UpdateMetrics)
	r.POST("/social-accounts/:id/toggle", h.ToggleActive)
	r.POST("/social-accounts/:id/autopost", h.ToggleAutoPost)
	r.DELETE("/social-accounts/:id", h.Disconnect)
	r.GET("/social-accounts/:id/analytics", h.GetAnalytics)
	r.GET("/social-platforms", h.ListPlatforms)
	return db, r
}

func connect(t *testing.T, r *gin.Engine, userID uint, platform string) models.SocialAccount {
	t.Helper()
	w := testutil.Do(t, r, http.MethodPost, "/social-accounts", map[string]interface{}{
		"platform":     platform,
		"account_id":   "remote-123",
		"account_name": "My Channel",
		"access_token": "tok",
		"expires_in":   3600,
	}, userID)
	if w.Code != http.StatusCreated {
		t.Fatalf("connect status = %d: %s", w.Code, w.Body.String())
	}
	var a models.SocialAccount
	testutil.Decode(t, w, &a)
	return a
}

func TestConnectDuplicatePlatform(t *testing.T) {
	db, r := setup(t)
	first := connect(t, r, ownerID, "youtube")

	w := testutil.Do(t, r, http.MethodPost, "/social-accounts", map[string]interface{}{
		"platform":     "youtube",
		"account_id":   "remote-456",
		"access_token": "tok2",
	}, ownerID)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
	var resp api.ErrorResponse
	testutil.Decode(t, w, &resp)
	if resp.ErrorCode != api.CodeConflict {
		t.Fatalf("error = %s, want CONFLICT", resp.ErrorCode)
	}

	// first connection untouched, no second row
	var count int64
	db.Model(&models.SocialAccount{}).Where("user_id = ?", ownerID).Count(&count)
	if count != 1 {
		t.Fatalf("account rows = %d, want 1", count)
	}
	var got models.SocialAccount
	db.First(&got, first.ID)
	if got.AccountID != "remote-123" {
		t.Fatalf("first connection mutated: %+v", got)
	}
}

func TestConnectSamePlatformOtherUser(t *testing.T) {
	_, r := setup(t)
	connect(t, r, ownerID, "youtube")
	// the uniqueness rule is per user
	connect(t, r, otherID, "youtube")
}

func TestConnectAfterDeactivation(t *testing.T) {
	_, r := setup(t)
	a := connect(t, r, ownerID, "tiktok")

	w := testutil.Do(t, r, http.MethodPost, fmt.Sprintf("/social-accounts/%d/toggle", a.ID), nil, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", w.Code, w.Body.String())
	}

	// only ACTIVE connections block a new one
	connect(t, r, ownerID, "tiktok")
}

func TestConnectUnknownPlatform(t *testing.T) {
	_, r := setup(t)
	w := testutil.Do(t, r, http.MethodPost, "/social-accounts", map[string]interface{}{
		"platform":     "myspace",
		"account_id":   "x",
		"access_token": "tok",
	}, ownerID)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetAccountOwnership(t *testing.T) {
	_, r := setup(t)
	a := connect(t, r, ownerID, "youtube")

	w := testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/social-accounts/%d", a.ID), nil, otherID)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	w = testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/social-accounts/%d", a.ID), nil, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var detail struct {
		ConnectionStatus string `json:"connection_status"`
	}
	testutil.Decode(t, w, &detail)
	// one hour to expiry and a window of 24h: expiring
	if detail.ConnectionStatus != "expiring" {
		t.Fatalf("connection_status = %q, want expiring", detail.ConnectionStatus)
	}
}

func TestTokensNeverSerialized(t *testing.T) {
	_, r := setup(t)
	a := connect(t, r, ownerID, "youtube")

	w := testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/social-accounts/%d", a.ID), nil, ownerID)
	body := w.Body.String()
	for _, secret := range []string{"tok", "access_token", "refresh_token"} {
		if strings.Contains(body, `"`+secret+`"`) {
			t.Fatalf("response leaks %q: %s", secret, body)
		}
	}
}

func TestUpdateTokens(t *testing.T) {
	db, r := setup(t)
	a := connect(t, r, ownerID, "youtube")

	w := testutil.Do(t, r, http.MethodPut, fmt.Sprintf("/social-accounts/%d/tokens", a.ID), map[string]interface{}{
		"access_token":  "rotated",
		"refresh_token": "refreshed",
		"expires_in":    7200,
	}, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var got models.SocialAccount
	db.First(&got, a.ID)
	if got.AccessToken != "rotated" || got.RefreshToken != "refreshed" {
		t.Fatalf("tokens not rotated: %+v", got)
	}
	if got.TokenExpiresAt == nil || !got.TokenExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Fatalf("expiry not extended: %v", got.TokenExpiresAt)
	}
}

func TestUpdateMetrics(t *testing.T) {
	db, r := setup(t)
	a := connect(t, r, ownerID, "instagram")

	w := testutil.Do(t, r, http.MethodPut, fmt.Sprintf("/social-accounts/%d/metrics", a.ID), map[string]interface{}{
		"follower_count": 12000,
		"is_verified":    true,
	}, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var got models.SocialAccount
	db.First(&got, a.ID)
	if got.FollowerCount != 12000 || !got.IsVerified {
		t.Fatalf("metrics not applied: %+v", got)
	}
}

func TestDisconnect(t *testing.T) {
	db, r := setup(t)
	a := connect(t, r, ownerID, "youtube")

	w := testutil.Do(t, r, http.MethodDelete, fmt.Sprintf("/social-accounts/%d", a.ID), nil, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.SocialAccount{}).Count(&count)
	if count != 0 {
		t.Fatalf("rows = %d, want 0", count)
	}
}

func TestAnalytics(t *testing.T) {
	db, r := setup(t)
	a := connect(t, r, ownerID, "youtube")

	now := time.Now()
	posts := []models.SocialPost{
		{AccountID: a.ID, PostedAt: now.AddDate(0, 0, -1), Views: 1000, Likes: 100, Comments: 20, Shares: 30},
		{AccountID: a.ID, PostedAt: now.AddDate(0, 0, -2), Views: 500, Likes: 50, Comments: 10, Shares: 40},
		// outside the window, must be ignored
		{AccountID: a.ID, PostedAt: now.AddDate(0, 0, -40), Views: 9999, Likes: 1},
	}
	for i := range posts {
		if err := db.Create(&posts[i]).Error; err != nil {
			t.Fatalf("seeding post: %v", err)
		}
	}

	w := testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/social-accounts/%d/analytics?days=30", a.ID), nil, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var got Analytics
	testutil.Decode(t, w, &got)
	if got.TotalPosts != 2 || got.TotalViews != 1500 {
		t.Fatalf("totals = %+v", got)
	}
	// (150+30+70)/1500 * 100
	want := float64(100+50+20+10+30+40) / 1500 * 100
	if got.AvgEngagementRate != want {
		t.Fatalf("engagement = %v, want %v", got.AvgEngagementRate, want)
	}
	if got.PostsPerDay != float64(2)/30 {
		t.Fatalf("posts per day = %v", got.PostsPerDay)
	}
}

func TestAggregateZeroViews(t *testing.T) {
	posts := []models.SocialPost{
		{Views: 0, Likes: 10, Comments: 5, Shares: 2},
		{Views: 0, Likes: 3},
	}
	got := Aggregate(posts, 7)
	if got.AvgEngagementRate != 0 {
		t.Fatalf("engagement with zero views = %v, want 0", got.AvgEngagementRate)
	}
	if got.TotalPosts != 2 || got.TotalLikes != 13 {
		t.Fatalf("totals = %+v", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil, 30)
	if got.TotalPosts != 0 || got.AvgEngagementRate != 0 || got.PostsPerDay != 0 {
		t.Fatalf("empty aggregate = %+v", got)
	}
}

func TestExpiringAccounts(t *testing.T) {
	db, _ := setup(t)

	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)
	accounts := []models.SocialAccount{
		{UserID: ownerID, Platform: "youtube", AccountID: "a", AccessToken: "t", RefreshToken: "r", TokenExpiresAt: &soon, IsActive: true},
		{UserID: ownerID, Platform: "tiktok", AccountID: "b", AccessToken: "t", RefreshToken: "", TokenExpiresAt: &soon, IsActive: true},
		{UserID: ownerID, Platform: "instagram", AccountID: "c", AccessToken: "t", RefreshToken: "r", TokenExpiresAt: &far, IsActive: true},
	}
	for i := range accounts {
		if err := db.Create(&accounts[i]).Error; err != nil {
			t.Fatalf("seeding account: %v", err)
		}
	}

	got, err := ExpiringAccounts(db)
	if err != nil {
		t.Fatalf("ExpiringAccounts: %v", err)
	}
	if len(got) != 1 || got[0].Platform != "youtube" {
		t.Fatalf("candidates = %+v, want only the youtube account", got)
	}
}

func TestListPlatforms(t *testing.T) {
	_, r := setup(t)
	w := testutil.Do(t, r, http.MethodGet, "/social-platforms", nil, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var caps []PlatformCapability
	testutil.Decode(t, w, &caps)
	if len(caps) != 3 {
		t.Fatalf("platforms = %d, want 3", len(caps))
	}
}

func TestToggleAutoPost(t *testing.T) {
	db, r := setup(t)
	a := connect(t, r, ownerID, "youtube")

	w := testutil.Do(t, r, http.MethodPost, fmt.Sprintf("/social-accounts/%d/autopost", a.ID), nil, ownerID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var got models.SocialAccount
	db.First(&got, a.ID)
	if got.AutoPost {
		t.Fatal("auto_post should be off after toggle")
	}
}
