// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets these values; services and stores read them without pulling
// in net/http. Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithRequestID(ctx, "req-1")
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	deviceKey      struct{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside of HTTP requests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// Device retrieves the parsed client device summary, e.g. "Chrome/Android mobile".
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client IP, raw User-Agent and device summary.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, device string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	ctx = context.WithValue(ctx, deviceKey{}, device)
	return ctx
}
