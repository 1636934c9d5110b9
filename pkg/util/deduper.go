package util

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper is an idempotency guard built on Redis SETNX.
type Deduper struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{rdb: rdb, ttl: ttl, logger: logger}
}

// AcquireOnce returns true the first time key is seen within ttl and false
// for duplicates. Redis failures let the caller proceed.
func (d *Deduper) AcquireOnce(ctx context.Context, key string) bool {
	key = "shiftdesk:dedup:" + key

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("dedup_key", key),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated event", zap.String("dedup_key", key))
	}
	return ok
}

// Release drops the lock so a failed attempt can be redelivered and processed.
func (d *Deduper) Release(ctx context.Context, key string) {
	if err := d.rdb.Del(ctx, "shiftdesk:dedup:"+key).Err(); err != nil {
		d.logger.Warn("Failed to release dedup key", zap.String("dedup_key", key), zap.Error(err))
	}
}
