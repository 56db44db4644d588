package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

const (
	defaultAttempts = 10
	defaultBackoff  = 3 * time.Second
	pingTimeout     = 5 * time.Second
)

// Config captures the settings for establishing a MySQL connection.
type Config struct {
	DSN      string
	Attempts int
	Backoff  time.Duration
}

// Connect opens a MySQL pool and verifies connectivity, retrying the ping a
// bounded number of times with fixed backoff (the database may still be
// starting). The pool handle is returned even when every ping failed so the
// service can keep serving health endpoints in a not-ready state; the error
// tells the caller the store is not usable yet.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*sql.DB, error) {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return db, nil
		}

		log.Warn().Err(lastErr).Int("attempt", i).Int("max_attempts", attempts).
			Msg("mysql not ready, retrying")

		select {
		case <-ctx.Done():
			return db, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return db, fmt.Errorf("mysql ping after %d attempts: %w", attempts, lastErr)
}
