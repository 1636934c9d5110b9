package util

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetryCounter counts failures per message. A key expires ttl after its last failure.
type RetryCounter struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRetryCounter(rdb redis.Cmdable, ttl time.Duration) *RetryCounter {
	return &RetryCounter{rdb: rdb, ttl: ttl}
}

// IncrementAndGet bumps the failure count and refreshes its expiry in one round trip.
func (r *RetryCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *RetryCounter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// FormatRetryKey builds the counter key for one handler and message id.
func FormatRetryKey(handler, messageID string) string {
	return "shiftdesk:retry:" + handler + ":" + messageID
}
