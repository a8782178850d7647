// Package ratelimit caps submissions per client IP.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until the window frees a slot.
	RetryAfter int
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// unlimited is returned by limiters configured with a limit of zero or less.
// The middleware passes such results through without rate limit headers.
func unlimited() *Result {
	return &Result{Allowed: true}
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
