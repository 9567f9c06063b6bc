package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jaider012/easy-reals/internal/platform"
	"github.com/jaider012/easy-reals/tasks"
	"github.com/jaider012/easy-reals/worker"
)

func main() {
	log := platform.NewLogger("worker")
	db := platform.NewDBConnection(log)
	rdb := platform.NewRedisClient(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := worker.NewProcessor(db, rdb, log)
	p.Register(tasks.QueueVideoGeneration, p.HandleVideoGeneration)
	p.Register(tasks.QueueTokenRefresh, p.HandleTokenRefresh)

	p.Listen(ctx, tasks.QueueVideoGeneration, tasks.QueueTokenRefresh)
	log.Info().Msg("worker stopped")
}
