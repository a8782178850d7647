package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"govportal/pkg/requestcontext"
)

// HeaderRequestID carries the correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates an inbound X-Request-ID or mints a new one, echoing it
// on the response so citizens can quote it to support.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime pins a single "now" for the whole request.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
