package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/orderdesk/order-system/internal/infrastructure/config"
	"github.com/orderdesk/order-system/internal/infrastructure/db/redis"
	"github.com/orderdesk/order-system/internal/worker"
	"github.com/orderdesk/order-system/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dedup is an optimisation, not a requirement: without Redis the
	// worker still runs and simply handles redeliveries twice.
	var dedup worker.Dedup
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without dedup")
	} else {
		dedup = redis.NewDedupChecker(rdb)
		defer rdb.Close()
	}

	notifier := worker.NewNotifier(cfg.Rabbit.URL, cfg.Rabbit.Queue, dedup, log)

	log.Info().Str("queue", cfg.Rabbit.Queue).Msg("notification worker starting")
	if err := notifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("notification worker stopped")
	}
	log.Info().Msg("notification worker stopped")
}
