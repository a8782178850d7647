package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"govportal/internal/intake/service"
	"govportal/internal/intake/store"
	"govportal/internal/intake/upload"
	"govportal/internal/objectstore"
	"govportal/internal/platform/metrics"
	"govportal/internal/ratelimit"
	dErrors "govportal/pkg/domain-errors"
	tu "govportal/pkg/testutil"
)

// =============================================================================
// Intake Handler Test Suite
// =============================================================================
// These run the real pipeline against in-memory object and record stores so
// the HTTP contract is checked end to end.

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type HandlerSuite struct {
	suite.Suite
	objects *objectstore.Memory
	records *store.Memory
	metrics *metrics.Metrics
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.objects = objectstore.NewMemory("https://cdn.test/storage/v1/object/public")
	s.records = store.NewMemory()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.router = s.newRouter(nil)
}

func (s *HandlerSuite) newRouter(missingConfig []string, opts ...Option) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(s.records, upload.New(s.objects, logger), logger,
		service.WithMetrics(s.metrics),
		service.WithMissingConfig(missingConfig),
	)
	h := New(svc, logger, append([]Option{WithMetrics(s.metrics)}, opts...)...)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (s *HandlerSuite) do(req *http.Request) map[string]any {
	rr := tu.DoRequest(s.router, tu.WithRequestMetadata(req, "req-1", "203.0.113.7", fixedNow))
	body := tu.DecodeJSON(s.T(), rr)
	body["_status"] = rr.Code
	return body
}

func reportPayload() map[string]any {
	return map[string]any{
		"category":    "Roads",
		"description": "Pothole on Main St",
		"lga":         "Jalingo",
	}
}

func (s *HandlerSuite) TestSubmitReport() {
	s.Run("multipart report with photo is stored and persisted", func() {
		req := tu.NewMultipart(s.T()).
			Payload(reportPayload()).
			File(tu.File{Field: "photo", Name: "pothole.JPG", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}).
			Request("/api/reports")

		body := s.do(req)

		s.Equal(http.StatusCreated, body["_status"])
		s.Equal(true, body["success"])
		ref, _ := body["referenceId"].(string)
		s.True(strings.HasPrefix(ref, "REPORT-"), ref)

		report, ok := body["report"].(map[string]any)
		s.Require().True(ok)
		s.Equal(ref, report["reference_id"])
		s.Equal("Roads", report["category"])
		s.Equal("Jalingo", report["lga"])
		s.Equal("pending", report["status"])
		s.Nil(report["reporter_email"])

		urls, ok := report["attachment_urls"].([]any)
		s.Require().True(ok)
		s.Require().Len(urls, 1)
		url := urls[0].(string)
		s.Contains(url, "/report-photos/jalingo/")
		s.True(strings.HasSuffix(url, ".jpg"), url)

		path := strings.TrimPrefix(url, "https://cdn.test/storage/v1/object/public/report-photos/")
		obj, ok := s.objects.Object("report-photos", path)
		s.Require().True(ok)
		s.Equal([]byte("jpeg-bytes"), obj.Data)
		s.Equal("image/jpeg", obj.ContentType)

		s.Equal(1, s.records.Count("citizen_reports"))
	})

	s.Run("json report without attachments has null urls", func() {
		body := s.do(tu.NewJSONRequest(s.T(), http.MethodPost, "/api/reports", reportPayload()))

		s.Equal(http.StatusCreated, body["_status"])
		report := body["report"].(map[string]any)
		s.Contains(report, "attachment_urls")
		s.Nil(report["attachment_urls"])
	})

	s.Run("photo upload failure fails the request and persists nothing", func() {
		before := s.records.Count("citizen_reports")
		s.objects.FailUploads(func(string, string) error { return errors.New("bucket offline") })
		defer s.objects.FailUploads(nil)

		req := tu.NewMultipart(s.T()).
			Payload(reportPayload()).
			File(tu.File{Field: "photo", Name: "pothole.jpg", ContentType: "image/jpeg", Data: []byte("x")}).
			Request("/api/reports")
		body := s.do(req)

		s.Equal(http.StatusInternalServerError, body["_status"])
		s.Equal(string(dErrors.CodeUpload), body["code"])
		s.Equal(before, s.records.Count("citizen_reports"))
	})
}

func (s *HandlerSuite) TestSubmitLandServicePartialUpload() {
	calls := 0
	s.objects.FailUploads(func(string, string) error {
		calls++
		if calls == 2 {
			return errors.New("timeout")
		}
		return nil
	})
	defer s.objects.FailUploads(nil)

	req := tu.NewMultipart(s.T()).
		Payload(map[string]any{"request_type": "Title search", "applicant_name": "Hauwa Bello", "lga": "Wukari"}).
		File(tu.File{Field: "documents", Name: "deed.pdf", ContentType: "application/pdf", Data: []byte("1")}).
		File(tu.File{Field: "documents", Name: "survey.pdf", ContentType: "application/pdf", Data: []byte("2")}).
		File(tu.File{Field: "documents", Name: "id.pdf", ContentType: "application/pdf", Data: []byte("3")}).
		Request("/api/land-services")
	body := s.do(req)

	s.Equal(http.StatusCreated, body["_status"])
	s.Equal(true, body["success"])
	request := body["request"].(map[string]any)
	s.Len(request["attachment_urls"], 2)
	s.Equal([]any{"survey.pdf"}, body["skippedAttachments"])
}

func (s *HandlerSuite) TestSubmitErrors() {
	s.Run("malformed json is a parse error", func() {
		body := s.do(tu.NewRawRequest(s.T(), http.MethodPost, "/api/document-verifications", "application/json", `{"applicant_name":`))

		s.Equal(http.StatusBadRequest, body["_status"])
		s.Equal(string(dErrors.CodeParse), body["code"])
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues("document_verification", metrics.OutcomeParseError)))
	})

	s.Run("missing field is a validation error and nothing is uploaded", func() {
		req := tu.NewMultipart(s.T()).
			Payload(map[string]any{"category": "Roads"}).
			File(tu.File{Field: "photo", Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")}).
			Request("/api/reports")
		body := s.do(req)

		s.Equal(http.StatusBadRequest, body["_status"])
		s.Equal(string(dErrors.CodeValidation), body["code"])
		s.Equal("Missing required fields", body["error"])
		s.Equal("description", body["details"])
		s.Zero(s.objects.Len())
	})

	s.Run("missing configuration refuses before reading the body", func() {
		router := s.newRouter([]string{"STORAGE_URL"})

		rr := tu.DoRequest(router, tu.NewRawRequest(s.T(), http.MethodPost, "/api/social-programs", "application/json", "not json"))
		body := tu.AssertError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeConfiguration))
		s.Equal("Server configuration error", body["error"])
	})
}

func (s *HandlerSuite) TestRateLimit() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.NewMiddleware(ratelimit.NewMemoryLimiter(1, time.Minute), logger)
	router := s.newRouter(nil, WithRateLimiter(limiter))

	first := tu.DoRequest(router, tu.NewJSONRequest(s.T(), http.MethodPost, "/api/reports", reportPayload()))
	s.Equal(http.StatusCreated, first.Code)

	second := tu.DoRequest(router, tu.NewJSONRequest(s.T(), http.MethodPost, "/api/reports", reportPayload()))
	tu.AssertError(s.T(), second, http.StatusTooManyRequests, string(dErrors.CodeRateLimited))
	s.NotEmpty(second.Header().Get("Retry-After"))
}

func (s *HandlerSuite) TestTrack() {
	created := s.do(tu.NewJSONRequest(s.T(), http.MethodPost, "/api/social-programs", map[string]any{
		"applicant_name": "Zainab Yusuf",
		"program_name":   "Conditional Cash Transfer",
	}))
	s.Require().Equal(http.StatusCreated, created["_status"])
	ref := created["referenceId"].(string)

	s.Run("known reference returns status", func() {
		body := s.do(tu.NewRawRequest(s.T(), http.MethodGet, "/api/submissions/"+strings.ToLower(ref), "", ""))

		s.Equal(http.StatusOK, body["_status"])
		s.Equal(ref, body["referenceId"])
		s.Equal("social_program", body["category"])
		s.Equal("pending", body["status"])
		s.Equal(fixedNow.Format(time.RFC3339Nano), body["createdAt"])
	})

	s.Run("unknown reference is not found", func() {
		rr := tu.DoRequest(s.router, tu.NewRawRequest(s.T(), http.MethodGet, "/api/submissions/PROGRAM-LZ4K2Q-0000000000", "", ""))
		tu.AssertError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}
