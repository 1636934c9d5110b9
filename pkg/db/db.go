package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"shiftdesk/pkg/config"
)

const (
	connectTimeout = 5 * time.Second
	connectBackoff = 2 * time.Second
)

// NewConnection opens the pool, retrying up to ConnectAttempts while the
// database is not ready.
func NewConnection(cfg config.DBConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.ConnectAttempts, 1)
	for attempt := 1; ; attempt++ {
		pool, err := open(poolCfg)
		if err == nil {
			logger.Info("PostgreSQL pool ready",
				zap.String("host", cfg.Host),
				zap.String("db", cfg.Name),
				zap.Int32("max_conns", poolCfg.MaxConns),
			)
			return pool, nil
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("postgres unavailable after %d attempts: %w", attempt, err)
		}
		logger.Warn("PostgreSQL not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", connectBackoff),
			zap.Error(err),
		)
		time.Sleep(connectBackoff)
	}
}

func poolConfig(cfg config.DBConfig, logger *zap.Logger) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolCfg.MaxConns {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.MaxConnIdleTime = time.Minute
	poolCfg.ConnConfig.Tracer = NewSlowQueryTracer(logger, cfg.SlowQuery)
	return poolCfg, nil
}

func open(poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
