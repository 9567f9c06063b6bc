package socials

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/api"
	"github.com/jaider012/easy-reals/auth"
	"github.com/jaider012/easy-reals/guard"
	"github.com/jaider012/easy-reals/models"
)

// TokenRefreshWindow is how far ahead the renewal sweep and the worker's
// refresh guard look.
const TokenRefreshWindow = 24 * time.Hour

type Handler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewHandler(db *gorm.DB, log zerolog.Logger) *Handler {
	return &Handler{DB: db, Log: log}
}

type ConnectRequest struct {
	Platform        string `json:"platform" binding:"required"`
	AccountID       string `json:"account_id" binding:"required"`
	AccountName     string `json:"account_name"`
	AccountUsername string `json:"account_username"`
	ProfilePicture  string `json:"profile_picture"`
	AccessToken     string `json:"access_token" binding:"required"`
	RefreshToken    string `json:"refresh_token"`
	ExpiresIn       int64  `json:"expires_in" binding:"omitempty,min=1"`
}

type UpdateTokensRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in" binding:"omitempty,min=1"`
}

type UpdateMetricsRequest struct {
	FollowerCount *int64 `json:"follower_count" binding:"omitempty,gte=0"`
	IsVerified    *bool  `json:"is_verified"`
}

// AccountDetail adds the computed connection status to the single-account
// view. Token material is never serialized.
type AccountDetail struct {
	models.SocialAccount
	ConnectionStatus string `json:"connection_status"`
}

// Analytics aggregates the account's posts over a lookback window.
type Analytics struct {
	WindowDays        int     `json:"window_days"`
	TotalPosts        int64   `json:"total_posts"`
	TotalViews        int64   `json:"total_views"`
	TotalLikes        int64   `json:"total_likes"`
	TotalComments     int64   `json:"total_comments"`
	TotalShares       int64   `json:"total_shares"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	PostsPerDay       float64 `json:"posts_per_day"`
}

// Connect links a platform account. One active connection per platform
// per user; a duplicate is a conflict and leaves the existing row alone.
func (h *Handler) Connect(c *gin.Context) {
	userID := auth.CallerID(c)
	var req ConnectRequest
	if !api.BindJSON(c, &req) {
		return
	}
	if !models.KnownPlatform(req.Platform) {
		api.Fail(c, api.Validation("unsupported platform: "+req.Platform))
		return
	}

	var existing models.SocialAccount
	err := h.DB.Where("user_id = ? AND platform = ? AND is_active = ?", userID, req.Platform, true).
		First(&existing).Error
	if err == nil {
		api.Fail(c, api.Conflict("an active "+req.Platform+" account is already connected"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	account := models.SocialAccount{
		UserID:          userID,
		Platform:        req.Platform,
		AccountID:       req.AccountID,
		AccountName:     req.AccountName,
		AccountUsername: req.AccountUsername,
		ProfilePicture:  req.ProfilePicture,
		AccessToken:     req.AccessToken,
		RefreshToken:    req.RefreshToken,
		IsActive:        true,
		AutoPost:        true,
	}
	if req.ExpiresIn > 0 {
		expiry := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
		account.TokenExpiresAt = &expiry
	}

	// TODO: validate the token against the platform API before saving
	if err := h.DB.Create(&account).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.Created(c, account)
}

// ListAccounts returns the caller's connected accounts.
func (h *Handler) ListAccounts(c *gin.Context) {
	userID := auth.CallerID(c)

	var accounts []models.SocialAccount
	if err := h.DB.Where("user_id = ?", userID).Order("created_at").Find(&accounts).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.OK(c, accounts)
}

// GetAccount returns one account with its connection status.
func (h *Handler) GetAccount(c *gin.Context) {
	a, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	api.OK(c, AccountDetail{SocialAccount: a, ConnectionStatus: connectionStatus(a)})
}

// UpdateTokens rotates the stored credential material.
func (h *Handler) UpdateTokens(c *gin.Context) {
	a, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	var req UpdateTokensRequest
	if !api.BindJSON(c, &req) {
		return
	}

	updates := map[string]interface{}{
		"access_token": req.AccessToken,
	}
	if req.RefreshToken != "" {
		updates["refresh_token"] = req.RefreshToken
	}
	if req.ExpiresIn > 0 {
		updates["token_expires_at"] = time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
	}

	res := h.DB.Model(&models.SocialAccount{}).Where("id = ?", a.ID).Updates(updates)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("social account"))
		return
	}

	api.OK(c, gin.H{"updated": true})
}

// UpdateMetrics refreshes follower count and verification from a platform
// sync.
func (h *Handler) UpdateMetrics(c *gin.Context) {
	a, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	var req UpdateMetricsRequest
	if !api.BindJSON(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.FollowerCount != nil {
		updates["follower_count"] = *req.FollowerCount
	}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}
	if len(updates) == 0 {
		api.Fail(c, api.Validation("nothing to update"))
		return
	}

	res := h.DB.Model(&models.SocialAccount{}).Where("id = ?", a.ID).Updates(updates)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("social account"))
		return
	}

	var updated models.SocialAccount
	if err := h.DB.First(&updated, a.ID).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}
	api.OK(c, updated)
}

// ToggleActive flips the active flag.
func (h *Handler) ToggleActive(c *gin.Context) {
	h.toggle(c, "is_active", func(a models.SocialAccount) bool { return a.IsActive })
}

// ToggleAutoPost flips the auto-post flag.
func (h *Handler) ToggleAutoPost(c *gin.Context) {
	h.toggle(c, "auto_post", func(a models.SocialAccount) bool { return a.AutoPost })
}

func (h *Handler) toggle(c *gin.Context, column string, current func(models.SocialAccount) bool) {
	a, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	next := !current(a)
	res := h.DB.Model(&models.SocialAccount{}).Where("id = ?", a.ID).Update(column, next)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("social account"))
		return
	}

	api.OK(c, gin.H{"id": a.ID, column: next})
}

// Disconnect hard-deletes the connection.
func (h *Handler) Disconnect(c *gin.Context) {
	a, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	res := h.DB.Delete(&models.SocialAccount{}, a.ID)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("social account"))
		return
	}

	api.OK(c, gin.H{"disconnected": true})
}

// GetAnalytics aggregates post metrics over the last `days` days
// (default 30).
func (h *Handler) GetAnalytics(c *gin.Context) {
	a, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		api.Fail(c, api.Validation("days must be between 1 and 365"))
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	var posts []models.SocialPost
	if err := h.DB.Where("account_id = ? AND posted_at >= ?", a.ID, since).Find(&posts).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.OK(c, Aggregate(posts, days))
}

// Aggregate computes the analytics block. Engagement rate is
// (likes+comments+shares)/views * 100, zero when there are no views.
func Aggregate(posts []models.SocialPost, windowDays int) Analytics {
	out := Analytics{WindowDays: windowDays}
	for _, p := range posts {
		out.TotalPosts++
		out.TotalViews += p.Views
		out.TotalLikes += p.Likes
		out.TotalComments += p.Comments
		out.TotalShares += p.Shares
	}
	if out.TotalViews > 0 {
		engagements := out.TotalLikes + out.TotalComments + out.TotalShares
		out.AvgEngagementRate = float64(engagements) / float64(out.TotalViews) * 100
	}
	if windowDays > 0 {
		out.PostsPerDay = float64(out.TotalPosts) / float64(windowDays)
	}
	return out
}

// ListPlatforms returns the static capability reference data.
func (h *Handler) ListPlatforms(c *gin.Context) {
	api.OK(c, PlatformCapabilities)
}

func connectionStatus(a models.SocialAccount) string {
	switch {
	case a.TokenExpiresAt == nil:
		return "connected"
	case a.TokenExpiresAt.Before(time.Now()):
		return "expired"
	case a.TokenExpiresAt.Before(time.Now().Add(TokenRefreshWindow)):
		return "expiring"
	default:
		return "connected"
	}
}

// fetchOwned resolves the :id account and applies the ownership guard.
func (h *Handler) fetchOwned(c *gin.Context) (models.SocialAccount, bool) {
	var a models.SocialAccount
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		api.Fail(c, api.Validation("invalid account id"))
		return a, false
	}

	if err := h.DB.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.Fail(c, api.NotFound("social account"))
		} else {
			api.Fail(c, api.StoreFailure(err))
		}
		return a, false
	}

	if err := guard.Check(auth.CallerID(c), a.UserID); err != nil {
		api.Fail(c, err)
		return a, false
	}
	return a, true
}

// ExpiringAccounts is the token-renewal sweep's query: accounts holding a
// refresh token whose access token expires within the next 24 hours.
func ExpiringAccounts(db *gorm.DB) ([]models.SocialAccount, error) {
	deadline := time.Now().Add(TokenRefreshWindow)
	var accounts []models.SocialAccount
	err := db.
		Where("is_active = ?", true).
		Where("refresh_token <> ''").
		Where("token_expires_at IS NOT NULL AND token_expires_at <= ?", deadline).
		Find(&accounts).Error
	return accounts, err
}
