package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/internal/platform"
	"github.com/jaider012/easy-reals/models"
	"github.com/jaider012/easy-reals/series"
	"github.com/jaider012/easy-reals/socials"
	"github.com/jaider012/easy-reals/tasks"
	"github.com/jaider012/easy-reals/videos"
)

// stuckAfter is how long a queued video may sit untouched before the
// recovery sweep re-pushes its generation task.
const stuckAfter = 15 * time.Minute

func main() {
	log := platform.NewLogger("scheduler")
	db := platform.NewDBConnection(log)
	rdb := platform.NewRedisClient(log)
	ctx := context.Background()

	c := cron.New()

	// Daily sweep: queue the day's videos for every automation candidate.
	if _, err := c.AddFunc("0 6 * * *", func() {
		sweepActiveSeries(ctx, db, rdb, log)
	}); err != nil {
		log.Fatal().Err(err).Msg("scheduling series sweep")
	}

	// Hourly sweep: queue token refreshes for accounts expiring soon.
	if _, err := c.AddFunc("@hourly", func() {
		sweepExpiringTokens(ctx, db, rdb, log)
	}); err != nil {
		log.Fatal().Err(err).Msg("scheduling token sweep")
	}

	// Recovery sweep: re-push generation tasks for queued videos whose
	// enqueue was lost after the create committed.
	if _, err := c.AddFunc("*/15 * * * *", func() {
		sweepStuckVideos(ctx, db, rdb, log)
	}); err != nil {
		log.Fatal().Err(err).Msg("scheduling stuck-video sweep")
	}

	c.Start()
	defer c.Stop()

	// React to new series immediately instead of waiting for the sweep.
	// Pub/sub delivery means only one scheduler instance should run.
	go listenForNewSeries(ctx, db, rdb, log)

	log.Info().Msg("scheduler started")
	select {}
}

// sweepActiveSeries creates queued videos per series posting frequency
// and pushes generation tasks.
func sweepActiveSeries(ctx context.Context, db *gorm.DB, rdb *redis.Client, log zerolog.Logger) {
	candidates, err := series.ActiveSeries(db)
	if err != nil {
		log.Error().Err(err).Msg("loading active series")
		return
	}
	log.Info().Int("series", len(candidates)).Msg("running daily generation sweep")

	for _, s := range candidates {
		for i := 0; i < s.PostsPerDay; i++ {
			if err := enqueueGeneration(ctx, db, rdb, s.ID); err != nil {
				log.Error().Err(err).Uint("series_id", s.ID).Msg("queueing daily video")
			}
		}
	}
}

// sweepExpiringTokens enqueues refresh tasks for accounts whose tokens
// expire within the next day.
func sweepExpiringTokens(ctx context.Context, db *gorm.DB, rdb *redis.Client, log zerolog.Logger) {
	accounts, err := socials.ExpiringAccounts(db)
	if err != nil {
		log.Error().Err(err).Msg("loading expiring accounts")
		return
	}

	for _, a := range accounts {
		payload, err := tasks.Marshal(tasks.TokenRefreshTaskPayload{AccountID: a.ID})
		if err != nil {
			log.Error().Err(err).Uint("account_id", a.ID).Msg("marshalling refresh task")
			continue
		}
		if err := rdb.LPush(ctx, tasks.QueueTokenRefresh, payload).Err(); err != nil {
			log.Error().Err(err).Uint("account_id", a.ID).Msg("queueing refresh task")
		}
	}
	if len(accounts) > 0 {
		log.Info().Int("accounts", len(accounts)).Msg("queued token refreshes")
	}
}

// sweepStuckVideos re-pushes generation tasks for queued videos that have
// gone stale. The worker re-checks status, so a duplicate push is a no-op.
func sweepStuckVideos(ctx context.Context, db *gorm.DB, rdb *redis.Client, log zerolog.Logger) {
	stuck, err := videos.StuckQueued(db, stuckAfter)
	if err != nil {
		log.Error().Err(err).Msg("loading stuck videos")
		return
	}

	for _, v := range stuck {
		payload, err := tasks.Marshal(tasks.GenerationTaskPayload{VideoID: v.ID})
		if err != nil {
			log.Error().Err(err).Uint("video_id", v.ID).Msg("marshalling generation task")
			continue
		}
		if err := rdb.LPush(ctx, tasks.QueueVideoGeneration, payload).Err(); err != nil {
			log.Error().Err(err).Uint("video_id", v.ID).Msg("re-queueing stuck video")
		}
	}
	if len(stuck) > 0 {
		log.Info().Int("videos", len(stuck)).Msg("re-queued stuck videos")
	}
}

// listenForNewSeries subscribes to series_created and queues the first
// generation for each new series.
func listenForNewSeries(ctx context.Context, db *gorm.DB, rdb *redis.Client, log zerolog.Logger) {
	pubsub := rdb.Subscribe(ctx, tasks.SeriesCreatedChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	log.Info().Msg("listening for new series")

	for msg := range ch {
		var message tasks.SeriesCreatedMessage
		if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
			log.Error().Err(err).Msg("unmarshalling series_created message")
			continue
		}

		log.Info().Uint("series_id", message.SeriesID).Msg("new series, queueing first video")
		if err := enqueueGeneration(ctx, db, rdb, message.SeriesID); err != nil {
			log.Error().Err(err).Uint("series_id", message.SeriesID).Msg("queueing first video")
		}
	}
}

// enqueueGeneration creates a queued video from the series template and
// pushes its generation task. Mirrors the API's generation request path.
func enqueueGeneration(ctx context.Context, db *gorm.DB, rdb *redis.Client, seriesID uint) error {
	var s models.Series
	if err := db.First(&s, seriesID).Error; err != nil {
		return err
	}
	if !s.IsActive {
		// deactivated between publish and sweep
		return nil
	}

	v := videos.BuildGeneration(s, videos.GenerateVideoRequest{SeriesID: s.ID})
	v.UserID = s.UserID

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		return tx.Model(&models.Series{}).Where("id = ?", s.ID).
			Update("total_videos_generated", gorm.Expr("total_videos_generated + ?", 1)).Error
	})
	if err != nil {
		return err
	}

	payload, err := tasks.Marshal(tasks.GenerationTaskPayload{VideoID: v.ID})
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, tasks.QueueVideoGeneration, payload).Err()
}
