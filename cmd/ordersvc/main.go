package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderdesk/order-system/internal/api"
	"github.com/orderdesk/order-system/internal/core/ports"
	"github.com/orderdesk/order-system/internal/core/service"
	"github.com/orderdesk/order-system/internal/infrastructure/config"
	"github.com/orderdesk/order-system/internal/infrastructure/db/mysql"
	"github.com/orderdesk/order-system/internal/infrastructure/mq"
	"github.com/orderdesk/order-system/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	ctx := context.Background()

	db, err := mysql.Connect(ctx, mysql.Config{
		DSN:      cfg.MySQL.DSN,
		Attempts: cfg.MySQL.Attempts,
		Backoff:  cfg.MySQL.Backoff,
	}, log)
	if db == nil {
		log.Fatal().Err(err).Msg("invalid mysql configuration")
	}
	if err != nil {
		// Keep serving: /health/ready reports 503 until the store comes up.
		log.Error().Err(err).Msg("mysql unavailable, starting in not-ready state")
	} else if err := mysql.BootstrapOrders(ctx, db); err != nil {
		log.Error().Err(err).Msg("failed to bootstrap orders table")
	}
	defer db.Close()

	// Event delivery is best-effort: when the broker never comes up the
	// service still starts and every dropped event is logged.
	var publisher ports.EventPublisher
	pub, err := mq.Connect(cfg.Rabbit.URL, cfg.Rabbit.Queue, cfg.Rabbit.Attempts, cfg.Rabbit.Backoff, log)
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq unavailable, lifecycle events disabled")
		publisher = mq.Disabled{}
	} else {
		publisher = pub
		defer pub.Close()
	}

	orderRepo := mysql.NewOrderRepository(db)
	orderService := service.NewOrderService(orderRepo, publisher, log)

	e := api.NewOrderRouter(db, orderService, cfg.JWTSecret, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("order service listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
