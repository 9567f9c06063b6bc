package worker

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/tasks"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Processor holds dependencies and registered task handlers.
type Processor struct {
	DB       *gorm.DB
	RDB      *redis.Client
	Log      zerolog.Logger
	handlers map[string]TaskHandler
}

// NewProcessor creates a new worker processor.
func NewProcessor(db *gorm.DB, rdb *redis.Client, log zerolog.Logger) *Processor {
	return &Processor{
		DB:       db,
		RDB:      rdb,
		Log:      log,
		handlers: make(map[string]TaskHandler),
	}
}

// Register maps a queue name to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	p.Log.Info().Str("queue", queueName).Msg("registered handler")
}

// Enqueue adds a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return p.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Listen starts the worker, blocking on all registered queues.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	p.Log.Info().Strs("queues", queueNames).Msg("worker listening")

	for {
		// BRPop blocks until a task is available on any listed queue.
		result, err := p.RDB.BRPop(ctx, 0, queueNames...).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.Log.Error().Err(err).Msg("popping from queue")
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		queueName := result[0]
		payload := result[1]

		handler, ok := p.handlers[queueName]
		if !ok {
			p.Log.Error().Str("queue", queueName).Msg("no handler registered")
			continue
		}

		if err := handler(ctx, payload); err != nil {
			// failures are terminal for the task; no retry, no DLQ yet
			p.Log.Error().Err(err).Str("queue", queueName).Msg("processing task")
		}
	}
}
