// Package db provides database connection pooling, startup checks and the
// connector configuration store.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const (
	maxRetries    = 10
	retryBaseWait = 1 * time.Second
	retryMaxWait  = 10 * time.Second
)

// Querier is the subset of pgxpool.Pool the store and checks use.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// requiredTables that must exist for embedding config lookups.
var requiredTables = []string{
	"connector",
	"document_by_connector_credential_pair",
}

// Connect creates a pgx connection pool with retry logic.
// It retries up to maxRetries times with capped exponential backoff.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Lookups are short point reads; a small pool is enough.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	backoff := retry.NewExponential(retryBaseWait)
	backoff = retry.WithCappedDuration(retryMaxWait, backoff)
	backoff = retry.WithMaxRetries(maxRetries-1, backoff)

	var pool *pgxpool.Pool
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = p.Ping(ctx); err == nil {
				pool = p
				return nil
			}
			p.Close()
		}

		slog.Warn("database connection failed, retrying",
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed after %d attempts: %w", attempt, err)
	}

	slog.Info("database connected", "attempt", attempt)
	return pool, nil
}

// CheckTables verifies that all required tables exist in the database.
func CheckTables(ctx context.Context, q Querier) error {
	for _, table := range requiredTables {
		var exists bool
		err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1)", table,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check table %q: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %q does not exist, run migrations first", table)
		}
		slog.Debug("table check passed", "table", table)
	}
	return nil
}

// StartupChecks runs all pre-flight checks.
func StartupChecks(ctx context.Context, q Querier) error {
	slog.Info("running startup checks...")

	if err := CheckTables(ctx, q); err != nil {
		return fmt.Errorf("table check failed: %w", err)
	}
	slog.Info("all required tables present")

	return nil
}
