package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jaider012/easy-reals/models"
	"github.com/jaider012/easy-reals/socials"
	"github.com/jaider012/easy-reals/tasks"
)

// HandleVideoGeneration advances a queued video through processing to a
// terminal state. The actual rendering is an external collaborator; this
// handler owns only the lifecycle bookkeeping around it.
func (p *Processor) HandleVideoGeneration(ctx context.Context, payload string) error {
	var task tasks.GenerationTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var video models.Video
	if err := p.DB.First(&video, task.VideoID).Error; err != nil {
		return err
	}
	if video.Status != models.VideoStatusQueued {
		p.Log.Warn().Uint("video_id", video.ID).Str("status", video.Status).
			Msg("skipping generation for non-queued video")
		return nil
	}

	var series models.Series
	if err := p.DB.First(&series, video.SeriesID).Error; err != nil {
		p.fail(video.ID, "series lookup failed")
		return err
	}

	p.Log.Info().Uint("video_id", video.ID).Str("priority", video.Priority).Msg("generating video")
	if err := p.DB.Model(&video).Updates(map[string]interface{}{
		"status":   models.VideoStatusProcessing,
		"progress": 10,
	}).Error; err != nil {
		return err
	}

	// TODO: hand off to the rendering service and stream progress back;
	// until it ships we complete with placeholder media.
	result := map[string]interface{}{
		"video_url":     fmt.Sprintf("https://cdn.easyreals.dev/videos/%d.mp4", video.ID),
		"duration_secs": series.VideoDuration,
		"resolution":    "1080x1920",
		"script":        fmt.Sprintf("Generated script for %q.", video.Title),
		"status":        models.VideoStatusCompleted,
		"progress":      100,
	}
	if err := p.DB.Model(&video).Updates(result).Error; err != nil {
		p.fail(video.ID, "saving generation result failed")
		return err
	}

	p.Log.Info().Uint("video_id", video.ID).Msg("video completed")
	return nil
}

// HandleTokenRefresh renews an expiring social-account token. The token
// exchange itself happens against the platform API.
func (p *Processor) HandleTokenRefresh(ctx context.Context, payload string) error {
	var task tasks.TokenRefreshTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var account models.SocialAccount
	if err := p.DB.First(&account, task.AccountID).Error; err != nil {
		return err
	}
	if !account.TokenExpiringWithin(socials.TokenRefreshWindow) {
		p.Log.Warn().Uint("account_id", account.ID).Msg("token not due for refresh, skipping")
		return nil
	}

	// TODO: call the platform token endpoint and persist the rotated
	// credentials through the tokens update path.
	p.Log.Info().Uint("account_id", account.ID).Str("platform", account.Platform).
		Msg("token refresh due")
	return nil
}

func (p *Processor) fail(videoID uint, msg string) {
	if err := p.DB.Model(&models.Video{}).Where("id = ?", videoID).Updates(map[string]interface{}{
		"status":        models.VideoStatusFailed,
		"error_message": msg,
	}).Error; err != nil {
		p.Log.Error().Err(err).Uint("video_id", videoID).Msg("marking video failed")
	}
}
