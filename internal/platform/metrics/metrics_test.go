package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersByLabel(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncSubmission("report", OutcomeCreated)
	m.IncSubmission("report", OutcomeCreated)
	m.IncSubmission("report", OutcomeUploadFailed)
	m.IncAttachment("land_service", true)
	m.IncAttachment("land_service", false)
	m.IncRateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("report", OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("report", OutcomeUploadFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttachmentUploads.WithLabelValues("land_service", "stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttachmentUploads.WithLabelValues("land_service", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncSubmission("report", OutcomeCreated)
		m.IncAttachment("report", true)
		m.ObserveIntake("report", time.Second)
		m.ObserveHTTP("/api/reports", "POST", time.Second)
		m.IncRateLimited()
	})
}
