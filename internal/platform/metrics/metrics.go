package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeCreated       = "created"
	OutcomeParseError    = "parse_error"
	OutcomeInvalid       = "validation_error"
	OutcomeUploadFailed  = "upload_error"
	OutcomeStorageFailed = "storage_error"
	OutcomeConfigError   = "configuration_error"
)

// Metrics holds the Prometheus collectors for the portal.
// All methods are nil-safe so components can run without metrics in tests.
type Metrics struct {
	Submissions       *prometheus.CounterVec
	AttachmentUploads *prometheus.CounterVec
	IntakeDuration    *prometheus.HistogramVec
	HTTPDuration      *prometheus.HistogramVec
	RateLimited       prometheus.Counter
}

// New registers all collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Intake submissions by category and outcome",
		}, []string{"category", "outcome"}),

		AttachmentUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_attachment_uploads_total",
			Help: "Attachment upload attempts by category and outcome",
		}, []string{"category", "outcome"}), // outcome: "stored", "failed"

		IntakeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_intake_duration_seconds",
			Help:    "Duration of the intake pipeline from validation to persistence",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"category"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_submissions_rate_limited_total",
			Help: "Submissions rejected by the per-client rate limiter",
		}),
	}
}

// IncSubmission records the terminal outcome of one intake request.
func (m *Metrics) IncSubmission(category, outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(category, outcome).Inc()
	}
}

// IncAttachment records one attachment upload attempt.
func (m *Metrics) IncAttachment(category string, stored bool) {
	if m == nil {
		return
	}
	outcome := "stored"
	if !stored {
		outcome = "failed"
	}
	m.AttachmentUploads.WithLabelValues(category, outcome).Inc()
}

// ObserveIntake records pipeline duration for a category.
func (m *Metrics) ObserveIntake(category string, d time.Duration) {
	if m != nil {
		m.IntakeDuration.WithLabelValues(category).Observe(d.Seconds())
	}
}

// ObserveHTTP records request latency.
func (m *Metrics) ObserveHTTP(route, method string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
	}
}

// IncRateLimited counts a rejected submission.
func (m *Metrics) IncRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
