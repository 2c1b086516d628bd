package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResultCache adapts a Redis client to the resultCache interface used for
// finished generation results.
type RedisResultCache struct {
	client *redis.Client
}

// NewRedisResultCache wraps the given client.
func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

// Get returns the cached value and whether the key exists.
func (c *RedisResultCache) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return raw, true, nil
}

// Set stores the value with the given TTL.
func (c *RedisResultCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}
