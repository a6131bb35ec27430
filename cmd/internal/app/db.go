package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tasker/cmd/internal/migrations"
)

// NewDBPool builds a pgxpool from DATABASE_URL and validates connectivity.
func NewDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: DATABASE_URL: %v", ErrConfig, err)
	}

	pcfg.MaxConns = cfg.DBMaxConns
	pcfg.MinConns = cfg.DBMinConns
	pcfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return pool, nil
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

// prepareDB applies pending migrations when DB_MIGRATE is set.
func prepareDB(ctx context.Context, cfg Config, pool *pgxpool.Pool, log Logger) error {
	if !cfg.DBMigrate {
		log.Info("db.migrate.skipped")
		return nil
	}
	start := time.Now()
	if err := migrations.UpPool(ctx, pool); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	log.Info("db.migrate.done", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
