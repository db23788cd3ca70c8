package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/config"
	"github.com/guttosm/bundle-service/internal/logger"
)

const redisPingTimeout = 3 * time.Second

// InitializeRedis connects to the shared Redis. It returns nil when Redis is
// disabled or unreachable, in which case callers keep state in memory.
func InitializeRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Logger().Error().Err(err).Str("addr", cfg.Addr).Msg("Failed to connect to Redis - falling back to in-memory state")
		_ = client.Close()
		return nil
	}

	logger.Logger().Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return client
}
