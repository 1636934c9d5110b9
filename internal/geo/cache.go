package geo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shiftdesk/pkg/circuitbreaker"
)

// Cache is the key/value store behind ResilientGeocoder.
type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a redis client to Cache.
type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// ResilientGeocoder caches answers and guards the upstream with a circuit breaker.
// Cache errors never fail a lookup.
type ResilientGeocoder struct {
	inner   Geocoder
	cache   Cache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewResilientGeocoder(inner Geocoder, cache Cache, ttl time.Duration, logger *zap.Logger) *ResilientGeocoder {
	cfg := circuitbreaker.DefaultConfig()
	cfg.IsFailure = func(err error) bool {
		return !errors.Is(err, ErrNoResult) && !errors.Is(err, ErrMissingAPIKey)
	}
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return &ResilientGeocoder{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		breaker: circuitbreaker.NewCircuitBreaker("geocode", cfg),
		logger:  logger,
	}
}

func cacheKey(query string) string {
	return "geo:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (g *ResilientGeocoder) Geocode(ctx context.Context, query string) (Point, error) {
	key := cacheKey(query)

	if raw, ok, err := g.cache.Get(ctx, key); err != nil {
		g.logger.Warn("Geocode cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var p Point
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return p, nil
		}
	}

	var p Point
	err := g.breaker.Execute(func() error {
		var err error
		p, err = g.inner.Geocode(ctx, query)
		return err
	})
	if err != nil {
		return Point{}, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := g.cache.Set(ctx, key, string(raw), g.ttl); err != nil {
			g.logger.Warn("Geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}
