// Package throttle limits how often a key may perform an action within a window.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/encuentro-server/internal/model"
)

const keyPrefix = "encuentro:throttle:"

var _ model.ResetLimiter = (*RedisLimiter)(nil)

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RedisLimiter is a fixed-window counter stored in Redis.
type RedisLimiter struct {
	client redis.Cmdable
	scope  string
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit actions per key and window. A non-positive
// limit disables throttling.
func NewRedisLimiter(client redis.Cmdable, scope string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, scope: scope, limit: limit, window: window}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	k := keyPrefix + l.scope + ":" + key

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, k)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count attempt: %w", err)
	}

	// A missing TTL means this attempt opened the window.
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set throttle window: %w", err)
		}
	}

	return count.Val() <= int64(l.limit), nil
}
