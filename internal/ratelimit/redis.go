package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFixedWindow counts requests per key in Redis with INCR + EXPIRE,
// giving a fixed-window approximation that survives process restarts and is
// shared across replicas.
type RedisFixedWindow struct {
	client *redis.Client
	prefix string
}

// NewRedisFixedWindow builds a limiter over an existing client.
func NewRedisFixedWindow(client *redis.Client, prefix string) *RedisFixedWindow {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindow{client: client, prefix: prefix}
}

// Allow increments the counter for the key and admits while the count stays
// within limit. A Redis failure is returned to the caller; admission control
// here is advisory, so callers typically fail open.
func (l *RedisFixedWindow) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= int64(limit), nil
}
