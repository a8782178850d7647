package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intakehandler "govportal/internal/intake/handler"
	"govportal/internal/intake/service"
	"govportal/internal/intake/store"
	"govportal/internal/intake/upload"
	"govportal/internal/objectstore"
	"govportal/internal/platform/metrics"
	tu "govportal/pkg/testutil"
)

type stubCheck struct {
	name string
	err  error
}

func (c stubCheck) Name() string                 { return c.name }
func (c stubCheck) Health(context.Context) error { return c.err }

func newTestRouter(t *testing.T, d Deps) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	if d.Intake == nil {
		svc := service.New(store.NewMemory(), upload.New(objectstore.NewMemory("http://files.test"), logger), logger)
		d.Intake = intakehandler.New(svc, logger, intakehandler.WithMetrics(m))
	}
	d.Logger = logger
	d.Metrics = m
	d.Gatherer = reg
	if d.AllowedOrigins == nil {
		d.AllowedOrigins = []string{"*"}
	}
	return NewRouter(d)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, Deps{})
	rr := tu.DoRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		router := newTestRouter(t, Deps{Checks: []HealthChecker{stubCheck{name: "postgres"}}})
		rr := tu.DoRequest(router, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", tu.DecodeJSON(t, rr)["checks"].(map[string]any)["postgres"])
	})

	t.Run("failing dependency is unready", func(t *testing.T) {
		router := newTestRouter(t, Deps{Checks: []HealthChecker{stubCheck{name: "redis", err: errors.New("dial tcp: refused")}}})
		rr := tu.DoRequest(router, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("missing configuration is unready", func(t *testing.T) {
		router := newTestRouter(t, Deps{MissingConfig: []string{"DATABASE_URL"}})
		rr := tu.DoRequest(router, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, []any{"DATABASE_URL"}, tu.DecodeJSON(t, rr)["missingConfig"])
	})
}

func TestMetricsEndpointExposesSubmissions(t *testing.T) {
	router := newTestRouter(t, Deps{})
	tu.DoRequest(router, tu.NewRawRequest(t, http.MethodPost, "/api/reports", "application/json", "{"))

	rr := tu.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "portal_submissions_total")
}

func TestFilesServedFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "report-photos", "jalingo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report-photos", "jalingo", "a.jpg"), []byte("jpeg"), 0o644))

	router := newTestRouter(t, Deps{FilesDir: dir})
	rr := tu.DoRequest(router, httptest.NewRequest(http.MethodGet, "/files/report-photos/jalingo/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "jpeg", rr.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, Deps{AllowedOrigins: []string{"https://portal.taraba.gov.ng"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "https://portal.taraba.gov.ng")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr := tu.DoRequest(router, req)
	assert.Equal(t, "https://portal.taraba.gov.ng", rr.Header().Get("Access-Control-Allow-Origin"))
}
