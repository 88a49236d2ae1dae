package pgx

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolConfig configures Connect.
type PoolConfig struct {
	ConnString string
	// ConnectTimeout bounds the time spent waiting for the database to come
	// up. Zero means a single attempt.
	ConnectTimeout time.Duration
	Logger         *zap.Logger
}

// Connect creates a pool and pings the database until it answers or
// ConnectTimeout elapses. Retries only happen here, at startup.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("pgx: parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgx: create pool: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ping := func() error {
		return pool.Ping(ctx)
	}
	if cfg.ConnectTimeout <= 0 {
		err = ping()
	} else {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 250 * time.Millisecond
		b.MaxInterval = 5 * time.Second
		b.MaxElapsedTime = cfg.ConnectTimeout
		err = backoff.RetryNotify(ping, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
			logger.Warn("database not ready", zap.Error(err), zap.Duration("retry_in", next))
		})
	}
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx: ping %s: %w", poolConfig.ConnConfig.Host, err)
	}

	logger.Info("connected to database",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
	)
	return pool, nil
}
