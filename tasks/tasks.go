package tasks

import "encoding/json"

// Queue names shared by the api, scheduler, and worker binaries.
const (
	// QueueVideoGeneration carries generation requests awaiting the
	// rendering worker.
	QueueVideoGeneration = "q_video_generation"

	// QueueTokenRefresh carries social accounts whose access token is
	// about to expire.
	QueueTokenRefresh = "q_token_refresh"
)

// SeriesCreatedChannel is the pub/sub channel the API publishes to when a
// series is created, so the scheduler can kick off the first video.
const SeriesCreatedChannel = "series_created"

// GenerationTaskPayload is the payload for QueueVideoGeneration.
type GenerationTaskPayload struct {
	VideoID uint `json:"video_id"`
}

// TokenRefreshTaskPayload is the payload for QueueTokenRefresh.
type TokenRefreshTaskPayload struct {
	AccountID uint `json:"account_id"`
}

// SeriesCreatedMessage is published on SeriesCreatedChannel.
type SeriesCreatedMessage struct {
	SeriesID    uint `json:"series_id"`
	PostsPerDay int  `json:"posts_per_day"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
