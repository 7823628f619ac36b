// Package postgres implements the repository's relational storage on top of
// a pgxpool.Pool, with goose-driven schema migrations bridged through
// pgx/v5/stdlib.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/config"
)

const (
	retryAttempts = 3
	retryInterval = 2 * time.Second
)

// Connect establishes a pool against cfg.URL, retrying with linear backoff
// to ride out transient startup races with the database container.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, err, "parsing database url")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * retryInterval)
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			time.Sleep(time.Duration(attempt) * retryInterval)
			continue
		}
		return pool, nil
	}
	return nil, apperr.Wrap(apperr.Database, lastErr, "connecting to database after %d attempts", retryAttempts)
}
