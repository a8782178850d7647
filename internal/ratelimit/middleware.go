package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"govportal/internal/platform/metrics"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/circuit"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// HeaderStatus is set to "degraded" while the fallback limiter is in use.
const HeaderStatus = "X-RateLimit-Status"

// Middleware applies a Limiter to submission routes keyed by client IP.
// Limiter errors fail open; repeated errors switch to the fallback limiter
// until the primary recovers.
type Middleware struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Middleware.
type Option func(*Middleware)

// WithFallback sets the limiter used while the primary's circuit is open.
func WithFallback(l Limiter) Option {
	return func(m *Middleware) { m.fallback = l }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) { m.breaker = b }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = mt }
}

// NewMiddleware wraps primary.
func NewMiddleware(primary Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		logger:  logger,
		breaker: circuit.New("ratelimit"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler enforces the limit.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientIP(r)

		result, degraded := m.check(r, ip)
		if result == nil || result.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		if degraded {
			w.Header().Set(HeaderStatus, "degraded")
		}

		if !result.Allowed {
			m.metrics.IncRateLimited()
			m.logger.WarnContext(ctx, "submission rate limited",
				"request_id", requestcontext.RequestID(ctx),
				"path", r.URL.Path,
				"retry_after", result.RetryAfter,
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
				Error: "Too many submissions. Please try again later.",
				Code:  string(dErrors.CodeRateLimited),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// check returns nil when no limiter could answer (fail open). The second
// result reports whether the fallback answered.
func (m *Middleware) check(r *http.Request, ip string) (*Result, bool) {
	ctx := r.Context()
	if m.breaker.IsOpen() && m.fallback != nil && !m.breaker.Allow() {
		res, err := m.fallback.Allow(ctx, ip)
		if err != nil {
			return nil, true
		}
		return res, true
	}

	res, err := m.primary.Allow(ctx, ip)
	if err != nil {
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limiter degraded, using in-memory fallback", "error", err)
		} else {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
		}
		if useFallback && m.fallback != nil {
			if res, ferr := m.fallback.Allow(ctx, ip); ferr == nil {
				return res, true
			}
		}
		return nil, false
	}
	if _, change := m.breaker.RecordSuccess(); change.Closed {
		m.logger.InfoContext(ctx, "rate limiter recovered")
	}
	return res, false
}

func clientIP(r *http.Request) string {
	if ip := requestcontext.ClientIP(r.Context()); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
