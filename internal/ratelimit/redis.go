package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "portal:ratelimit:submit:"

// RedisLimiter is a fixed-window counter shared by every portal instance.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter allows limit requests per key per window. A limit of zero
// or less disables limiting.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow increments key's counter and reports whether it is within the limit.
// The window starts at the first request and is never extended.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if l.limit <= 0 {
		return unlimited(), nil
	}
	redisKey := keyPrefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.ExpireNX(ctx, redisKey, l.window)
		ttl = p.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	now := l.now()
	remainingTTL := ttl.Val()
	if remainingTTL <= 0 {
		remainingTTL = l.window
	}
	count := int(incr.Val())
	res := &Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(0, l.limit-count),
		ResetAt:   now.Add(remainingTTL),
	}
	if !res.Allowed {
		res.RetryAfter = retryAfter(now, res.ResetAt)
	}
	return res, nil
}
