// Package handler exposes the intake pipeline over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govportal/internal/intake/models"
	"govportal/internal/intake/normalize"
	"govportal/internal/platform/metrics"
	"govportal/internal/ratelimit"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// DefaultMaxUploadBytes caps a whole request body.
const DefaultMaxUploadBytes = 25 << 20

// Service is the intake pipeline the handler drives.
type Service interface {
	Ready() error
	Submit(ctx context.Context, category models.Category, in *models.Normalized) (*models.Result, error)
	Track(ctx context.Context, referenceID string) (*models.TrackingInfo, error)
}

// Handler serves the submission and tracking endpoints.
type Handler struct {
	svc      Service
	logger   *slog.Logger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Middleware
	maxBytes int64
}

type Option func(*Handler)

// WithMaxUploadBytes caps request bodies. Non-positive values are ignored.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithRateLimiter throttles the submission routes.
func WithRateLimiter(m *ratelimit.Middleware) Option {
	return func(h *Handler) { h.limiter = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New creates a Handler.
func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:      svc,
		logger:   logger,
		maxBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts one POST route per category and the tracking lookup.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Handler)
		}
		for _, spec := range models.All() {
			r.Post(spec.Route, h.handleSubmit(spec))
		}
	})
	r.Get("/api/submissions/{referenceId}", h.handleTrack)
}

func (h *Handler) handleSubmit(spec models.CategorySpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Refuse before the body is read so a misconfigured deployment
		// never touches storage.
		if err := h.svc.Ready(); err != nil {
			h.metrics.IncSubmission(spec.Category.String(), metrics.OutcomeConfigError)
			httputil.WriteError(w, err)
			return
		}

		in, err := normalize.Request(w, r, spec.FileField, h.maxBytes)
		if err != nil {
			h.metrics.IncSubmission(spec.Category.String(), metrics.OutcomeParseError)
			h.logger.WarnContext(ctx, "submission body rejected",
				"request_id", requestcontext.RequestID(ctx),
				"category", spec.Category,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}

		res, err := h.svc.Submit(ctx, spec.Category, in)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		body := map[string]any{
			"success":        true,
			"referenceId":    res.Record.ReferenceID,
			spec.ResponseKey: res.Record,
		}
		if len(res.Skipped) > 0 {
			body["skippedAttachments"] = res.Skipped
		}
		httputil.WriteJSON(w, http.StatusCreated, body)
	}
}

type trackResponse struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"referenceId"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Track(r.Context(), chi.URLParam(r, "referenceId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trackResponse{
		Success:     true,
		ReferenceID: info.ReferenceID,
		Category:    info.Category.String(),
		Status:      info.Status,
		CreatedAt:   info.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}
