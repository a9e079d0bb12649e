package database

import (
	"context"
	"time"

	"github.com/authgw/gateway/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the single pooled client shared by the session store and the
// Redis rate limiter, and checks connectivity once. A failed ping still returns the
// client: the store is fallible at runtime and readiness reports it.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return client, client.Ping(ctx).Err()
}
