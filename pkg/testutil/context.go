package testutil

import (
	"net/http"
	"time"

	"govportal/pkg/requestcontext"
)

// WithRequestMetadata injects the values the middleware chain would set.
func WithRequestMetadata(req *http.Request, requestID, clientIP string, now time.Time) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithClientMetadata(ctx, clientIP, req.UserAgent(), "test")
	return req.WithContext(ctx)
}
