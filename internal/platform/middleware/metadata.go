package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"govportal/pkg/requestcontext"
)

// ClientMetadata extracts the client IP and a parsed device summary from the
// request and adds them to the context. Apply it before rate limiting.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DeviceSummary(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP, honouring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// client, proxy1, proxy2, ...
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DeviceSummary condenses a User-Agent into "<browser> on <os> (<form>)".
func DeviceSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	if name == "" {
		name = "unknown browser"
	}
	os := ua.OS()
	if os == "" {
		os = "unknown os"
	}
	form := "desktop"
	if ua.Mobile() {
		form = "mobile"
	}
	return name + " on " + os + " (" + form + ")"
}
