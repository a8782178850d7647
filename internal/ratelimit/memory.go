package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a per-process sliding window. It backs single-instance
// deployments and stands in for Redis while the Redis circuit is open.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	windows   map[string][]time.Time
	lastSweep time.Time
}

// NewMemoryLimiter allows limit requests per key in any trailing window.
// A limit of zero or less disables limiting.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (*Result, error) {
	if l.limit <= 0 {
		return unlimited(), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	l.sweep(now, cutoff)
	stamps := prune(l.windows[key], cutoff)

	if len(stamps) > 0 && len(stamps) >= l.limit {
		l.windows[key] = stamps
		resetAt := stamps[0].Add(l.window)
		return &Result{
			Allowed:    false,
			Limit:      l.limit,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}

	stamps = append(stamps, now)
	l.windows[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(stamps),
		ResetAt:   stamps[0].Add(l.window),
	}, nil
}

// sweep drops keys with no timestamps left in the window, at most once per
// window. Callers hold l.mu.
func (l *MemoryLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, stamps := range l.windows {
		if len(prune(stamps, cutoff)) == 0 {
			delete(l.windows, key)
		}
	}
}

// prune drops timestamps at or before cutoff; stamps are in ascending order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
