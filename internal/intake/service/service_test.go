package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RecordStore,AttachmentUploader,EventPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"govportal/internal/events"
	"govportal/internal/intake/models"
	"govportal/internal/intake/service/mocks"
	"govportal/internal/intake/upload"
	"govportal/internal/platform/metrics"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// =============================================================================
// Intake Service Test Suite
// =============================================================================
// Unit tests cover stage ordering: nothing is uploaded for an invalid
// submission and nothing is persisted after a fatal upload failure.

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	records  *mocks.MockRecordStore
	uploader *mocks.MockAttachmentUploader
	events   *mocks.MockEventPublisher
	metrics  *metrics.Metrics
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.records = mocks.NewMockRecordStore(s.ctrl)
	s.uploader = mocks.NewMockAttachmentUploader(s.ctrl)
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.service = s.newService()
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), fixedNow), "req-1")
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []Option{
		WithEvents(s.events),
		WithMetrics(s.metrics),
		WithReferenceGenerator(func(prefix string) string { return prefix + "-LZ4K2Q-0000000001" }),
	}
	return New(s.records, s.uploader, logger, append(base, opts...)...)
}

func reportInput(attachments ...models.Attachment) *models.Normalized {
	return &models.Normalized{
		Payload: models.Payload{
			"category":    "Roads",
			"description": "Pothole on Hammaruwa Way",
			"lga":         "Jalingo",
		},
		Attachments: attachments,
	}
}

func photo(name string) models.Attachment {
	return models.NewAttachment("photo", name, "image/jpeg", []byte("jpeg"))
}

func (s *ServiceSuite) TestSubmitValidation() {
	s.Run("missing required field stops before upload and insert", func() {
		in := &models.Normalized{
			Payload:     models.Payload{"category": "Roads"},
			Attachments: []models.Attachment{photo("a.jpg")},
		}
		s.uploader.EXPECT().UploadAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Submit(s.ctx, models.CategoryReport, in)

		s.Require().Error(err)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Equal("description", de.Details)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues("report", metrics.OutcomeInvalid)))
	})

	s.Run("unknown category is a bad request", func() {
		_, err := s.service.Submit(s.ctx, models.Category("parking_permit"), reportInput())
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestSubmitConfiguration() {
	s.Run("missing configuration fails before any work", func() {
		svc := s.newService(WithMissingConfig([]string{"DATABASE_URL"}))
		s.uploader.EXPECT().UploadAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Submit(s.ctx, models.CategoryReport, &models.Normalized{Payload: models.Payload{}})

		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
		s.Equal([]string{"DATABASE_URL"}, svc.MissingConfig())
	})
}

func (s *ServiceSuite) TestSubmitUploads() {
	s.Run("report upload failure aborts without a record", func() {
		s.uploader.EXPECT().
			UploadAll(gomock.Any(), gomock.Any(), "jalingo", gomock.Len(1)).
			Return(nil, dErrors.New(dErrors.CodeUpload, "Failed to upload attachment").WithDetails("a.jpg"))
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Submit(s.ctx, models.CategoryReport, reportInput(photo("a.jpg")))

		s.True(dErrors.HasCode(err, dErrors.CodeUpload))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues("report", metrics.OutcomeUploadFailed)))
	})

	s.Run("uncoded uploader error becomes an upload error", func() {
		s.uploader.EXPECT().UploadAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset"))
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Submit(s.ctx, models.CategoryReport, reportInput(photo("a.jpg")))
		s.True(dErrors.HasCode(err, dErrors.CodeUpload))
	})

	s.Run("tolerant category persists the documents that were stored", func() {
		in := &models.Normalized{
			Payload: models.Payload{
				"request_type":   "Title search",
				"applicant_name": "Hauwa Bello",
				"lga":            "Wukari",
			},
			Attachments: []models.Attachment{
				models.NewAttachment("documents", "deed.pdf", "application/pdf", []byte("1")),
				models.NewAttachment("documents", "survey.pdf", "application/pdf", []byte("2")),
				models.NewAttachment("documents", "id.pdf", "application/pdf", []byte("3")),
			},
		}
		s.uploader.EXPECT().UploadAll(gomock.Any(), gomock.Any(), "wukari", gomock.Len(3)).
			Return(&upload.Batch{
				Stored: []models.StoredAttachment{
					{Bucket: "land-documents", Path: "wukari/1.pdf", URL: "https://cdn.test/wukari/1.pdf"},
					{Bucket: "land-documents", Path: "wukari/3.pdf", URL: "https://cdn.test/wukari/3.pdf"},
				},
				Failed: []string{"survey.pdf"},
			}, nil)
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, spec models.CategorySpec, rec *models.Record) error {
				s.Equal("land_service_requests", spec.Table)
				s.Equal([]string{"https://cdn.test/wukari/1.pdf", "https://cdn.test/wukari/3.pdf"}, rec.AttachmentURLs)
				return nil
			})
		s.events.EXPECT().PublishSubmission(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Submit(s.ctx, models.CategoryLandService, in)

		s.Require().NoError(err)
		s.Len(res.Record.AttachmentURLs, 2)
		s.Equal([]string{"survey.pdf"}, res.Skipped)
	})

	s.Run("birth registration ignores attachments", func() {
		in := &models.Normalized{
			Payload: models.Payload{
				"child_first_name": "Ada",
				"child_last_name":  "Nwosu",
				"child_gender":     "female",
				"date_of_birth":    "2026-01-02",
			},
			Attachments: []models.Attachment{photo("stray.jpg")},
		}
		s.uploader.EXPECT().UploadAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.events.EXPECT().PublishSubmission(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Submit(s.ctx, models.CategoryBirthRegistration, in)

		s.Require().NoError(err)
		s.Nil(res.Record.AttachmentURLs)
	})
}

func (s *ServiceSuite) TestSubmitPersistence() {
	s.Run("classified store errors pass through", func() {
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeSchemaMissing, "Failed to save submission").WithHint("create citizen_reports"))

		_, err := s.service.Submit(s.ctx, models.CategoryReport, reportInput())

		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeSchemaMissing, de.Code)
		s.Equal("create citizen_reports", de.Hint)
	})

	s.Run("uncoded store errors become persistence failures", func() {
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("conn closed"))

		_, err := s.service.Submit(s.ctx, models.CategoryReport, reportInput())

		s.True(dErrors.HasCode(err, dErrors.CodePersistenceFailed))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues("report", metrics.OutcomeStorageFailed)))
	})
}

func (s *ServiceSuite) TestSubmitSuccess() {
	s.Run("record carries reference, status and request time", func() {
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.events.EXPECT().PublishSubmission(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev events.SubmissionCreated) error {
				s.Equal("REPORT-LZ4K2Q-0000000001", ev.ReferenceID)
				s.Equal("report", ev.Category)
				s.Equal("req-1", ev.RequestID)
				return nil
			})

		res, err := s.service.Submit(s.ctx, models.CategoryReport, reportInput())

		s.Require().NoError(err)
		s.Equal("REPORT-LZ4K2Q-0000000001", res.Record.ReferenceID)
		s.Equal(models.StatusPending, res.Record.Status)
		s.Equal(fixedNow, res.Record.CreatedAt)
		s.Equal("report", res.Spec.ResponseKey)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues("report", metrics.OutcomeCreated)))
	})

	s.Run("event failure does not fail the submission", func() {
		s.records.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.events.EXPECT().PublishSubmission(gomock.Any(), gomock.Any()).Return(events.ErrCircuitOpen)

		res, err := s.service.Submit(s.ctx, models.CategoryReport, reportInput())

		s.Require().NoError(err)
		s.NotEmpty(res.Record.ReferenceID)
	})
}

func (s *ServiceSuite) TestTrack() {
	const ref = "REPORT-LZ4K2Q-0000000001"

	s.Run("malformed reference is not found without a lookup", func() {
		s.records.EXPECT().FindByReference(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Track(s.ctx, "not-a-reference")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown prefix is not found", func() {
		_, err := s.service.Track(s.ctx, "PERMIT-LZ4K2Q-0000000001")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing row is not found", func() {
		s.records.EXPECT().FindByReference(gomock.Any(), gomock.Any(), ref).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Track(s.ctx, ref)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("lookup is case insensitive", func() {
		want := &models.TrackingInfo{ReferenceID: ref, Category: models.CategoryReport, Status: models.StatusPending, CreatedAt: fixedNow}
		s.records.EXPECT().FindByReference(gomock.Any(), gomock.Any(), ref).
			DoAndReturn(func(_ context.Context, spec models.CategorySpec, _ string) (*models.TrackingInfo, error) {
				s.Equal("citizen_reports", spec.Table)
				return want, nil
			})

		got, err := s.service.Track(s.ctx, "report-lz4k2q-0000000001")
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("store failure is internal", func() {
		s.records.EXPECT().FindByReference(gomock.Any(), gomock.Any(), ref).Return(nil, errors.New("timeout"))

		_, err := s.service.Track(s.ctx, ref)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
