package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Recovery converts panics into a structured 500 so no request ever ends in a
// bare stack trace.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					"request_id", requestcontext.RequestID(ctx),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httputil.WriteError(w, nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
