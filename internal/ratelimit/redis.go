package ratelimit

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares counters between instances through INCR + EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window Window
}

func NewRedisLimiter(client *redis.Client, prefix string, w Window) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, window: w.normalize()}
}

// Allow fails open: if redis is unreachable the request goes through.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}

	k := l.prefix + ":" + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		slog.Warn("ratelimit redis incr failed", "key", k, "err", err)
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window.Period).Err(); err != nil {
			slog.Warn("ratelimit redis expire failed", "key", k, "err", err)
		}
	}
	if int(count) > l.window.Limit {
		return ErrRateLimited
	}

	return nil
}
