package videos

import (
	"errors"
	"fmt"
	"strconv"
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

type CreateVideoRequest struct {
	SeriesID uint     `json:"series_id" binding:"required"`
	Title    string   `json:"title" binding:"required"`
	Script   string   `json:"script"`
	Tags     []string `json:"tags"`
	Status   string   `json:"status" binding:"omitempty,oneof=queued processing generating completed ready failed"`

	VideoURL     string `json:"video_url"`
	DurationSecs int    `json:"duration_secs" binding:"omitempty,min=1"`
	Resolution   string `json:"resolution"`
}

// GenerateVideoRequest defers content to the generation worker. Style
// fields override the series template for this one video.
type GenerateVideoRequest struct {
	SeriesID uint     `json:"series_id" binding:"required"`
	Title    string   `json:"title"`
	Prompt   string   `json:"prompt"`
	Tags     []string `json:"tags"`
	Priority string   `json:"priority" binding:"omitempty,oneof=low normal high urgent"`

	VisualStyle  string `json:"visual_style"`
	VoiceStyle   string `json:"voice_style"`
	MusicStyle   string `json:"music_style"`
	DurationSecs int    `json:"duration_secs" binding:"omitempty,min=15,max=600"`
}

type UpdateVideoRequest struct {
	Title        *string   `json:"title"`
	Script       *string   `json:"script"`
	Tags         *[]string `json:"tags"`
	VideoURL     *string   `json:"video_url"`
	DurationSecs *int      `json:"duration_secs" binding:"omitempty,min=1"`
	Resolution   *string   `json:"resolution"`
	Status       *string   `json:"status" binding:"omitempty,oneof=queued processing generating completed ready failed"`
	Progress     *int      `json:"progress" binding:"omitempty,min=0,max=100"`
}

// UpdateStatusRequest drives the lifecycle: status, progress, and error
// message may each be set independently. Pairing error messages with the
// failed status is a caller convention, not enforced here.
type UpdateStatusRequest struct {
	Status       *string `json:"status" binding:"omitempty,oneof=queued processing generating completed ready failed"`
	Progress     *int    `json:"progress" binding:"omitempty,min=0,max=100"`
	ErrorMessage *string `json:"error_message"`
}

// VideoDetail embeds a summary of the owning series.
type VideoDetail struct {
	models.Video
	Series SeriesSummary `json:"series"`
}

type SeriesSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// CreateVideo creates a video directly with caller-supplied content.
// Manual creations land in a terminal state, completed unless overridden.
func (h *Handler) CreateVideo(c *gin.Context) {
	userID := auth.CallerID(c)
	var req CreateVideoRequest
	if !api.BindJSON(c, &req) {
		return
	}

	s, ok := h.ownedSeries(c, req.SeriesID)
	if !ok {
		return
	}

	status := models.VideoStatusCompleted
	if req.Status != "" {
		status = models.NormalizeVideoStatus(req.Status)
	}
	progress := 0
	if status == models.VideoStatusCompleted {
		progress = 100
	}

	v := models.Video{
		SeriesID:     s.ID,
		UserID:       userID,
		Title:        req.Title,
		Script:       req.Script,
		Tags:         req.Tags,
		VideoURL:     req.VideoURL,
		DurationSecs: req.DurationSecs,
		Resolution:   req.Resolution,
		Status:       status,
		Progress:     progress,
		Priority:     models.PriorityNormal,
	}
	if err := h.DB.Create(&v).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.Created(c, v)
}

// GenerateVideo creates a queued video from the series template and hands
// it to the generation worker. Inactive series are rejected before any
// write happens.
func (h *Handler) GenerateVideo(c *gin.Context) {
	userID := auth.CallerID(c)
	var req GenerateVideoRequest
	if !api.BindJSON(c, &req) {
		return
	}

	s, ok := h.ownedSeries(c, req.SeriesID)
	if !ok {
		return
	}
	if !s.IsActive {
		api.Fail(c, api.Validation("cannot generate videos for an inactive series"))
		return
	}

	v := BuildGeneration(s, req)
	v.UserID = userID

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		return tx.Model(&models.Series{}).Where("id = ?", s.ID).
			Update("total_videos_generated", gorm.Expr("total_videos_generated + ?", 1)).Error
	})
	if err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	payload := tasks.GenerationTaskPayload{VideoID: v.ID}
	body, err := tasks.Marshal(payload)
	if err != nil {
		h.Log.Error().Err(err).Msg("marshalling generation task")
	} else if err := h.Redis.LPush(c.Request.Context(), tasks.QueueVideoGeneration, body).Err(); err != nil {
		// the scheduler sweep re-finds stuck queued videos
		h.Log.Error().Err(err).Uint("video_id", v.ID).Msg("enqueueing generation task")
	}

	api.Created(c, v)
}

// BuildGeneration merges the series template with request overrides into
// a queued video. Title defaults to "<series name> Episode <N+1>".
func BuildGeneration(s models.Series, req GenerateVideoRequest) models.Video {
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s Episode %d", s.Name, s.TotalVideosGenerated+1)
	}

	visual := s.VisualStyle
	if req.VisualStyle != "" {
		visual = req.VisualStyle
	}
	voice := s.VoiceStyle
	if req.VoiceStyle != "" {
		voice = req.VoiceStyle
	}
	music := s.MusicStyle
	if req.MusicStyle != "" {
		music = req.MusicStyle
	}
	duration := s.VideoDuration
	if req.DurationSecs != 0 {
		duration = req.DurationSecs
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = s.ContentStyle
	}
	merged := fmt.Sprintf(
		"visual=%s voice=%s music=%s duration=%ds trending=%t | %s",
		visual, voice, music, duration, s.IncludeTrendingTopics, prompt,
	)

	return models.Video{
		SeriesID:     s.ID,
		Title:        title,
		Script:       "Script generation pending.",
		Tags:         req.Tags,
		PromptUsed:   merged,
		DurationSecs: duration,
		Status:       models.VideoStatusQueued,
		Progress:     0,
		Priority:     priority,
	}
}

// ListVideos returns the caller's videos with status/series filters.
func (h *Handler) ListVideos(c *gin.Context) {
	userID := auth.CallerID(c)
	page := api.ParsePage(c)

	q := h.DB.Model(&models.Video{}).Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", models.NormalizeVideoStatus(status))
	}
	if seriesID := c.Query("series_id"); seriesID != "" {
		id, err := strconv.ParseUint(seriesID, 10, 64)
		if err != nil {
			api.Fail(c, api.Validation("series_id must be an integer"))
			return
		}
		q = q.Where("series_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	var list []models.Video
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.List(c, list, api.NewMeta(page, total))
}

// GetVideo returns the detail view with the owning series summary.
func (h *Handler) GetVideo(c *gin.Context) {
	v, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	var s models.Series
	if err := h.DB.First(&s, v.SeriesID).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.OK(c, VideoDetail{
		Video:  v,
		Series: SeriesSummary{ID: s.ID, Name: s.Name, IsActive: s.IsActive},
	})
}

// UpdateVideo applies a partial content/media update. The worker's
// completion call sets media fields, progress 100, and the completed
// status in one request.
func (h *Handler) UpdateVideo(c *gin.Context) {
	v, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	var req UpdateVideoRequest
	if !api.BindJSON(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Script != nil {
		updates["script"] = *req.Script
	}
	if req.VideoURL != nil {
		updates["video_url"] = *req.VideoURL
	}
	if req.DurationSecs != nil {
		updates["duration_secs"] = *req.DurationSecs
	}
	if req.Resolution != nil {
		updates["resolution"] = *req.Resolution
	}
	if req.Status != nil {
		updates["status"] = models.NormalizeVideoStatus(*req.Status)
	}
	if req.Progress != nil {
		updates["progress"] = *req.Progress
	}

	if req.Tags != nil {
		// serialized column, set through the model so the serializer runs
		if err := h.DB.Model(&v).Update("tags", *req.Tags).Error; err != nil {
			api.Fail(c, api.StoreFailure(err))
			return
		}
	}

	if len(updates) > 0 {
		res := h.DB.Model(&models.Video{}).Where("id = ?", v.ID).Updates(updates)
		if res.Error != nil {
			api.Fail(c, api.StoreFailure(res.Error))
			return
		}
		if res.RowsAffected == 0 {
			api.Fail(c, api.NotFound("video"))
			return
		}
	}

	var updated models.Video
	if err := h.DB.First(&updated, v.ID).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}
	api.OK(c, updated)
}

// UpdateStatus is the status-only lifecycle path.
func (h *Handler) UpdateStatus(c *gin.Context) {
	v, ok := h.fetchOwned(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !api.BindJSON(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		updates["status"] = models.NormalizeVideoStatus(*req.Status)
	}
	if req.Progress != nil {
		updates["progress"] = *req.Progress
	}
	if req.ErrorMessage != nil {
		updates["error_message"] = *req.ErrorMessage
	}
	if len(updates) == 0 {
		api.Fail(c, api.Validation("nothing to update"))
		return
	}

	res := h.DB.Model(&models.Video{}).Where("id = ?", v.ID).Updates(updates)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		api.Fail(c, api.NotFound("video"))
		return
	}

	var updated models.Video
	if err := h.DB.First(&updated, v.ID).Error; err != nil {
		api.Fail(c, api.StoreFailure(err))
		return
	}
	api.OK(c, updated)
}

// DeleteVideo hard-deletes a video and its social-post associations.
func (h *Handler) DeleteVideo(c *gin.Context) {
	v, ok := h.fetchOwned(c)
	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", v.ID).Delete(&models.SocialPost{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Video{}, v.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.Fail(c, api.NotFound("video"))
			return
		}
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.OK(c, gin.H{"deleted": true})
}

// fetchOwned resolves the :id video and applies the ownership guard.
func (h *Handler) fetchOwned(c *gin.Context) (models.Video, bool) {
	var v models.Video
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		api.Fail(c, api.Validation("invalid video id"))
		return v, false
	}

	if err := h.DB.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.Fail(c, api.NotFound("video"))
		} else {
			api.Fail(c, api.StoreFailure(err))
		}
		return v, false
	}

	if err := guard.Check(auth.CallerID(c), v.UserID); err != nil {
		api.Fail(c, err)
		return v, false
	}
	return v, true
}

// StuckQueued is the recovery sweep's query: queued videos that have not
// moved in olderThan, meaning their generation task was lost (typically a
// failed enqueue after the create committed). Re-pushing is safe because
// the worker skips anything no longer queued.
func StuckQueued(db *gorm.DB, olderThan time.Duration) ([]models.Video, error) {
	cutoff := time.Now().Add(-olderThan)
	var list []models.Video
	err := db.
		Where("status = ?", models.VideoStatusQueued).
		Where("updated_at <= ?", cutoff).
		Find(&list).Error
	return list, err
}

// ownedSeries resolves a series referenced in a request body and applies
// the guard.
func (h *Handler) ownedSeries(c *gin.Context, seriesID uint) (models.Series, bool) {
	var s models.Series
	if err := h.DB.First(&s, seriesID).Error; err != nil {
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
