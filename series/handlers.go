package series

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/api"
	"github.com/jaider012/easy-reals/auth"
	"github.com/jaider012/easy-reals/guard"
	"github.com/jaider012/easy-reals/models"
	"github.com/jaider012/easy-reals/tasks"
)

type Handler struct {
	DB    *gorm.DB
	Redis *redis.Client
	Log   zerolog.Logger
}

func NewHandler(db *gorm.DB, rdb *redis.Client, log zerolog.Logger) *Handler {
	return &Handler{DB: db, Redis: rdb, Log: log}
}

type CreateSeriesRequest struct {
	Name                  string `json:"name" binding:"required"`
	Description           string `json:"description"`
	VisualStyle           string `json:"visual_style"`
	VoiceStyle            string `json:"voice_style"`
	MusicStyle            string `json:"music_style"`
	ContentStyle          string `json:"content_style"`
	VideoDuration         int    `json:"video_duration" binding:"omitempty,min=15,max=600"`
	PostsPerDay           int    `json:"posts_per_day" binding:"required,min=1,max=3"`
	PostingSchedule       string `json:"posting_schedule"`
	IncludeTrendingTopics bool   `json:"include_trending_topics"`
}

type UpdateSeriesRequest struct {
	Name                  *string `json:"name"`
	Description           *string `json:"description"`
	VisualStyle           *string `json:"visual_style"`
	VoiceStyle            *string `json:"voice_style"`
	MusicStyle            *string `json:"music_style"`
	ContentStyle          *string `json:"content_style"`
	VideoDuration         *int    `json:"video_duration" binding:"omitempty,min=15,max=600"`
	PostsPerDay           *int    `json:"posts_per_day" binding:"omitempty,min=1,max=3"`
	PostingSchedule       *string `json:"posting_schedule"`
	IncludeTrendingTopics *bool   `json:"include_trending_topics"`
}

// UpdateStatsRequest sets counters explicitly. When no generated count is
// supplied the counter is incremented by one; this makes a bare stats
// update non-idempotent, which is retained behavior.
type UpdateStatsRequest struct {
	TotalVideosGenerated *int   `json:"total_videos_generated" binding:"omitempty,gte=0"`
	TotalViews           *int64 `json:"total_views" binding:"omitempty,gte=0"`
	TotalLikes           *int64 `json:"total_likes" binding:"omitempty,gte=0"`
}

// SeriesDetail is the single-resource view with the computed stats block.
type SeriesDetail struct {
	models.Series
	Stats SeriesStats `json:"stats"`
}

// SeriesStats is recomputed on every read, never persisted verbatim.
type SeriesStats struct {
	TotalVideosGenerated int        `json:"total_videos_generated"`
	TotalViews           int64      `json:"total_views"`
	TotalLikes           int64      `json:"total_likes"`
	VideosOnRecord       int64      `json:"videos_on_record"`
	LastVideoAt          *time.Time `json:"last_video_at,omitempty"`
}

// CreateSeries creates a series and announces it so the scheduler can
// queue the first generation. A failed publish is logged, not fatal.
func (h *Handler) CreateSeries(c *gin.Context) {
	userID := auth.CallerID(c)
	var req CreateSeriesRequest
	if !api.BindJSON(c, &req) {
		return
	}

	s := models.Series{
		UserID:                userID,
		Name:                  req.Name,
		Description:           req.Description,
		VisualStyle:           req.VisualStyle,
		VoiceStyle:            req.VoiceStyle,
		MusicStyle:            req.MusicStyle,
		ContentStyle:          req.ContentStyle,
		VideoDuration:         req.VideoDuration,
		PostsPerDay:           req.PostsPerDay,
		PostingSchedule:       req.PostingSchedule,
		IncludeTrendingTopics: req.IncludeTrendingTopics,
		IsActive:              true,
	}
	if s.VideoDuration == 0 {
		s.VideoDuration = 60
	}

	if err := h.DB.Create(&s).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	payload, err := tasks.Marshal(tasks.SeriesCreatedMessage{SeriesID: s.ID, PostsPerDay: s.PostsPerDay})
	if err != nil {
		h.Log.Error().Err(err).Msg("marshalling series_created message")
	} else if err := h.Redis.Publish(c.Request.Context(), tasks.SeriesCreatedChannel, payload).Err(); err != nil {
		h.Log.Error().Err(err).Uint("series_id", s.ID).Msg("publishing series_created")
	}

	api.Created(c, s)
}

// ListSeries returns the caller's series. Active-flag filter, substring
// search over name/description, and pagination all run in the store query.
func (h *Handler) ListSeries(c *gin.Context) {
	userID := auth.CallerID(c)
	page := api.ParsePage(c)

	q := h.DB.Model(&models.Series{}).Where("user_id = ?", userID)

	if active := c.Query("active"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			api.Fail(c, api.Validation("active must be a boolean"))
			return
		}
		q = q.Where("is_active = ?", v)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	var list []models.Series
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.List(c, list, api.NewMeta(page, total))
}

// GetSeries returns the detail view for one owned series.
func (h *Handler) GetSeries(c *gin.Context) {
	s, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	stats := SeriesStats{
		TotalVideosGenerated: s.TotalVideosGenerated,
		TotalViews:           s.TotalViews,
		TotalLikes:           s.TotalLikes,
	}
	if err := h.DB.Model(&models.Video{}).Where("series_id = ?", s.ID).Count(&stats.VideosOnRecord).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}
	var latest models.Video
	if err := h.DB.Where("series_id = ?", s.ID).Order("created_at DESC").First(&latest).Error; err == nil {
		stats.LastVideoAt = &latest.CreatedAt
	}

	api.OK(c, SeriesDetail{Series: s, Stats: stats})
}

// UpdateSeries applies a partial configuration update.
func (h *Handler) UpdateSeries(c *gin.Context) {
	s, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	var req UpdateSeriesRequest
	if !api.BindJSON(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.VisualStyle != nil {
		updates["visual_style"] = *req.VisualStyle
	}
	if req.VoiceStyle != nil {
		updates["voice_style"] = *req.VoiceStyle
	}
	if req.MusicStyle != nil {
		updates["music_style"] = *req.MusicStyle
	}
	if req.ContentStyle != nil {
		updates["content_style"] = *req.ContentStyle
	}
	if req.VideoDuration != nil {
		updates["video_duration"] = *req.VideoDuration
	}
	if req.PostsPerDay != nil {
		updates["posts_per_day"] = *req.PostsPerDay
	}
	if req.PostingSchedule != nil {
		updates["posting_schedule"] = *req.PostingSchedule
	}
	if req.IncludeTrendingTopics != nil {
		updates["include_trending_topics"] = *req.IncludeTrendingTopics
	}

	if len(updates) > 0 {
		res := h.DB.Model(&models.Series{}).Where("id = ?", s.ID).Updates(updates)
		if res.Error != nil {
			api.Fail(c, api.StoreFailure(res.Error))
			return
		}
		if res.RowsAffected == 0 {
			api.Fail(c, api.NotFound("series"))
			return
		}
	}

	var updated models.Series
	if err := h.DB.First(&updated, s.ID).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}
	api.OK(c, updated)
}

// ToggleSeries flips the active flag.
func (h *Handler) ToggleSeries(c *gin.Context) {
	s, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	res := h.DB.Model(&models.Series{}).Where("id = ?", s.ID).Update("is_active", !s.IsActive)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("series"))
		return
	}

	api.OK(c, gin.H{"id": s.ID, "is_active": !s.IsActive})
}

// UpdateStats merges explicit counter overrides; when no generated count
// is supplied the counter is bumped by one with an atomic increment.
func (h *Handler) UpdateStats(c *gin.Context) {
	s, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	var req UpdateStatsRequest
	if !api.BindJSON(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.TotalVideosGenerated != nil {
		updates["total_videos_generated"] = *req.TotalVideosGenerated
	} else {
		updates["total_videos_generated"] = gorm.Expr("total_videos_generated + ?", 1)
	}
	if req.TotalViews != nil {
		updates["total_views"] = *req.TotalViews
	}
	if req.TotalLikes != nil {
		updates["total_likes"] = *req.TotalLikes
	}

	res := h.DB.Model(&models.Series{}).Where("id = ?", s.ID).Updates(updates)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("series"))
		return
	}

	var updated models.Series
	if err := h.DB.First(&updated, s.ID).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}
	api.OK(c, updated)
}

// DeleteSeries hard-deletes a series.
func (h *Handler) DeleteSeries(c *gin.Context) {
	s, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	res := h.DB.Delete(&models.Series{}, s.ID)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("series"))
		return
	}

	api.OK(c, gin.H{"deleted": true})
}

// SeriesVideos lists the videos of one owned series, paginated.
func (h *Handler) SeriesVideos(c *gin.Context) {
	s, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	page := api.ParsePage(c)

	q := h.DB.Model(&models.Video{}).Where("series_id = ?", s.ID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	var videos []models.Video
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&videos).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.List(c, videos, api.NewMeta(page, total))
}

// fetchOwned resolves the :id series and applies the ownership guard.
// Lookup failures surface as NOT_FOUND before the guard runs.
func (h *Handler) fetchOwned(c *gin.Context) (models.Series, bool) {
	var s models.Series
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		api.Fail(c, api.Validation("invalid series id"))
		return s, false
	}

	if err := h.DB.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.Fail(c, api.NotFound("series"))
		} else {
			api.Fail(c, api.StoreFailure(err))
		}
		return s, false
	}

	if err := guard.Check(auth.CallerID(c), s.UserID); err != nil {
		api.Fail(c, err)
		return s, false
	}
	return s, true
}

// ActiveSeries is the scheduler's candidate query: active series whose
// owner holds a live subscription.
func ActiveSeries(db *gorm.DB) ([]models.Series, error) {
	now := time.Now()
	var list []models.Series
	err := db.
		Joins("JOIN users ON users.id = series.user_id").
		Where("series.is_active = ?", true).
		Where("users.is_active = ? AND users.deleted_at IS NULL", true).
		Where("users.subscription_status IN ?", []string{models.SubscriptionActive, models.SubscriptionTrial}).
		Where("users.subscription_ends_at IS NULL OR users.subscription_ends_at > ?", now).
		Find(&list).Error
	return list, err
}
