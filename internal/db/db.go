package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxPoolConns caps DB_MAX_CONNS.
const MaxPoolConns = 1000

// poolSize clamps a configured pool size; ok is false when the pgxpool
// default should be kept.
func poolSize(maxConns int) (n int32, ok bool) {
	if maxConns <= 0 {
		return 0, false
	}
	if maxConns > MaxPoolConns {
		maxConns = MaxPoolConns
	}
	return int32(maxConns), true
}

// Connect opens a pgx connection pool and verifies connectivity with a ping.
// maxConns <= 0 keeps the pgxpool default; larger values are capped at
// MaxPoolConns.
func Connect(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("db: DB_DSN is empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}

	if n, ok := poolSize(maxConns); ok {
		cfg.MaxConns = n
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return pool, nil
}
