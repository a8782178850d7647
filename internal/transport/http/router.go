// Package httptransport assembles the portal's HTTP surface.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	intakehandler "govportal/internal/intake/handler"
	"govportal/internal/platform/metrics"
	"govportal/internal/platform/middleware"
	"govportal/pkg/platform/httputil"
)

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer       prometheus.Gatherer
	Intake         *intakehandler.Handler
	AllowedOrigins []string
	Checks         []HealthChecker
	// MissingConfig marks the instance unready.
	MissingConfig []string
	// FilesDir, when set, is served read-only under /files/.
	FilesDir string
}

// NewRouter wires middleware, operational endpoints and the intake routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(d.Checks, d.MissingConfig))

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if d.FilesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(d.FilesDir))))
	}

	if d.Intake != nil {
		d.Intake.Register(r)
	}
	return r
}

type readyResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks,omitempty"`
	MissingConfig []string          `json:"missingConfig,omitempty"`
}

func readiness(checks []HealthChecker, missing []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyResponse{Status: "ready", MissingConfig: missing}
		if len(missing) > 0 {
			resp.Status = "unready"
		}
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for _, c := range checks {
			if err := c.Health(ctx); err != nil {
				resp.Checks[c.Name()] = err.Error()
				resp.Status = "unready"
				continue
			}
			resp.Checks[c.Name()] = "ok"
		}

		status := http.StatusOK
		if resp.Status != "ready" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
