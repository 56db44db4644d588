package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderdesk/order-system/internal/api"
	"github.com/orderdesk/order-system/internal/core/service"
	"github.com/orderdesk/order-system/internal/infrastructure/config"
	"github.com/orderdesk/order-system/internal/infrastructure/db/mysql"
	"github.com/orderdesk/order-system/pkg/logger"
)

const tokenTTL = 24 * time.Hour

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
	} else if err := mysql.BootstrapUsers(ctx, db, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Error().Err(err).Msg("failed to bootstrap users table")
	}
	defer db.Close()

	authRepo := mysql.NewUserRepository(db)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, tokenTTL, log)

	e := api.NewAuthRouter(db, authService, cfg.JWTSecret, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("auth service listening")
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
