package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/metrics"
)

const defaultRedisPrefix = "bundle-service:"

// RedisCache shares quotes between service replicas. Redis failures degrade
// to cache misses; they never fail a quote.
type RedisCache struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	opTimeout time.Duration
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithKeyPrefix namespaces all keys written by the cache.
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// WithOperationTimeout bounds each Redis round trip.
func WithOperationTimeout(d time.Duration) RedisOption {
	return func(c *RedisCache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// NewRedisCache creates a quote cache on top of an existing Redis client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client:    client,
		prefix:    defaultRedisPrefix,
		ttl:       ttl,
		opTimeout: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a cached quote.
func (c *RedisCache) Get(key string) (model.Quote, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Logger().Warn().Err(err).Str("key", key).Msg("redis quote cache get failed")
			metrics.RecordCacheOperation("get", "error")
			return model.Quote{}, false
		}
		metrics.RecordCacheOperation("get", "miss")
		return model.Quote{}, false
	}

	var q model.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		metrics.RecordCacheOperation("get", "corrupt")
		return model.Quote{}, false
	}
	metrics.RecordCacheOperation("get", "hit")
	return q, true
}

// Set stores a quote with the cache TTL.
func (c *RedisCache) Set(key string, value model.Quote) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		logger.Logger().Warn().Err(err).Str("key", key).Msg("redis quote cache set failed")
		metrics.RecordCacheOperation("set", "error")
		return
	}
	metrics.RecordCacheOperation("set", "success")
}

// Invalidate deletes one key.
func (c *RedisCache) Invalidate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, c.prefix+key).Err(); err == nil {
		metrics.RecordCacheOperation("invalidate", "success")
	}
}

// Clear deletes every quote key under the cache prefix. Keys are pricing
// fingerprints, which all start with "quote:".
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*c.opTimeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.prefix+"quote:*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Logger().Warn().Err(err).Msg("redis quote cache clear failed")
		return
	}
	metrics.RecordCacheOperation("clear", "success")
}

// Stop is a no-op; the Redis client is owned and closed by the application.
func (c *RedisCache) Stop() {}
