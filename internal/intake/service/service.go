// Package service drives a submission through the intake pipeline:
// validate, upload attachments, mint a reference ID, persist, announce.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"govportal/internal/events"
	"govportal/internal/intake/models"
	"govportal/internal/intake/refid"
	"govportal/internal/intake/upload"
	"govportal/internal/platform/metrics"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// RecordStore persists submission records.
type RecordStore interface {
	Insert(ctx context.Context, spec models.CategorySpec, rec *models.Record) error
	FindByReference(ctx context.Context, spec models.CategorySpec, referenceID string) (*models.TrackingInfo, error)
}

// AttachmentUploader stores a submission's attachments.
type AttachmentUploader interface {
	UploadAll(ctx context.Context, spec models.CategorySpec, folder string, attachments []models.Attachment) (*upload.Batch, error)
}

// EventPublisher announces persisted submissions.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, event events.SubmissionCreated) error
}

// Service runs the intake pipeline.
type Service struct {
	records  RecordStore
	uploader AttachmentUploader
	events   EventPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	newRef   func(prefix string) string
	missing  []string
}

// Option configures a Service.
type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithReferenceGenerator overrides reference ID minting.
func WithReferenceGenerator(fn func(prefix string) string) Option {
	return func(s *Service) { s.newRef = fn }
}

// WithMissingConfig marks the service unready; every submission then fails
// with a configuration error before any work is done.
func WithMissingConfig(keys []string) Option {
	return func(s *Service) { s.missing = keys }
}

// New creates a Service.
func New(records RecordStore, uploader AttachmentUploader, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:  records,
		uploader: uploader,
		events:   events.Noop{},
		logger:   logger,
		tracer:   otel.Tracer("govportal/intake"),
		newRef:   refid.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports a configuration error when storage or database settings
// are absent.
func (s *Service) Ready() error {
	if len(s.missing) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeConfiguration, "Server configuration error")
}

// MissingConfig lists the absent configuration keys.
func (s *Service) MissingConfig() []string { return s.missing }

// Submit validates, stores attachments for, and persists one submission.
func (s *Service) Submit(ctx context.Context, category models.Category, in *models.Normalized) (*models.Result, error) {
	spec, ok := models.Lookup(category)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown submission category %q", category)
	}
	if err := s.Ready(); err != nil {
		s.fail(ctx, spec, metrics.OutcomeConfigError, err)
		return nil, err
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "intake.submit", trace.WithAttributes(attribute.String("category", spec.Category.String())))
	defer span.End()

	log := s.logger.With("request_id", requestcontext.RequestID(ctx), "category", spec.Category)
	if in.PayloadErr != nil {
		log.WarnContext(ctx, "multipart payload field unreadable, using empty payload", "error", in.PayloadErr)
	}

	fields, err := s.validate(ctx, spec, in.Payload)
	if err != nil {
		s.fail(ctx, spec, metrics.OutcomeInvalid, err)
		endSpan(span, err)
		return nil, err
	}

	batch, err := s.upload(ctx, spec, fields, in.Attachments)
	if err != nil {
		s.fail(ctx, spec, metrics.OutcomeUploadFailed, err)
		endSpan(span, err)
		return nil, err
	}

	rec, err := s.persist(ctx, spec, fields, batch)
	if err != nil {
		s.fail(ctx, spec, metrics.OutcomeStorageFailed, err)
		endSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("reference_id", rec.ReferenceID))

	s.publish(ctx, rec)

	s.metrics.IncSubmission(spec.Category.String(), metrics.OutcomeCreated)
	s.metrics.ObserveIntake(spec.Category.String(), time.Since(start))
	log.InfoContext(ctx, "submission accepted",
		"reference_id", rec.ReferenceID,
		"attachments", len(rec.AttachmentURLs),
		"skipped_attachments", len(batch.Failed),
	)
	return &models.Result{Spec: spec, Record: rec, Skipped: batch.Failed}, nil
}

func (s *Service) validate(ctx context.Context, spec models.CategorySpec, payload models.Payload) (models.Fields, error) {
	_, span := s.tracer.Start(ctx, "intake.validate")
	defer span.End()
	fields, err := models.Decode(spec.Category, payload, requestcontext.Now(ctx))
	endSpan(span, err)
	return fields, err
}

func (s *Service) upload(ctx context.Context, spec models.CategorySpec, fields models.Fields, attachments []models.Attachment) (*upload.Batch, error) {
	if len(attachments) == 0 || !spec.AcceptsAttachments() {
		return &upload.Batch{}, nil
	}
	ctx, span := s.tracer.Start(ctx, "intake.upload", trace.WithAttributes(attribute.Int("attachments", len(attachments))))
	defer span.End()

	batch, err := s.uploader.UploadAll(ctx, spec, upload.Subfolder(fields.FolderHint()), attachments)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeUpload) {
		err = dErrors.Wrap(err, dErrors.CodeUpload, "Failed to upload attachment")
	}
	endSpan(span, err)
	return batch, err
}

func (s *Service) persist(ctx context.Context, spec models.CategorySpec, fields models.Fields, batch *upload.Batch) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "intake.persist", trace.WithAttributes(attribute.String("table", spec.Table)))
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		endSpan(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate record id")
	}
	rec := models.NewRecord(id, s.newRef(spec.Prefix), spec.Category, fields, models.URLs(batch.Stored), requestcontext.Now(ctx))

	if err := s.records.Insert(ctx, spec, rec); err != nil {
		if _, coded := dErrors.As(err); !coded {
			err = dErrors.Wrap(err, dErrors.CodePersistenceFailed, "Failed to save submission")
		}
		endSpan(span, err)
		return nil, err
	}
	return rec, nil
}

// publish is best effort; a failed announcement never fails the submission.
func (s *Service) publish(ctx context.Context, rec *models.Record) {
	err := s.events.PublishSubmission(ctx, events.SubmissionCreated{
		ReferenceID:     rec.ReferenceID,
		Category:        rec.Category.String(),
		Status:          rec.Status,
		AttachmentCount: len(rec.AttachmentURLs),
		CreatedAt:       rec.CreatedAt,
		RequestID:       requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "submission event not published",
			"reference_id", rec.ReferenceID,
			"error", err,
		)
	}
}

func (s *Service) fail(ctx context.Context, spec models.CategorySpec, outcome string, err error) {
	s.metrics.IncSubmission(spec.Category.String(), outcome)

	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"category", spec.Category,
		"code", dErrors.CodeOf(err),
	}
	if de, ok := dErrors.As(err); ok && de.Details != "" {
		attrs = append(attrs, "details", de.Details)
	}
	switch outcome {
	case metrics.OutcomeInvalid:
		s.logger.WarnContext(ctx, "submission rejected", attrs...)
	case metrics.OutcomeConfigError:
		s.logger.ErrorContext(ctx, "submission refused: configuration incomplete",
			append(attrs, "missing", strings.Join(s.missing, ","))...)
	default:
		s.logger.ErrorContext(ctx, "submission failed", append(attrs, "error", err)...)
	}
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}

// Track returns the public status of a submission by reference ID.
func (s *Service) Track(ctx context.Context, referenceID string) (*models.TrackingInfo, error) {
	notFound := dErrors.New(dErrors.CodeNotFound, "Submission not found")

	referenceID = strings.ToUpper(strings.TrimSpace(referenceID))
	prefix, ok := refid.Parse(referenceID)
	if !ok {
		return nil, notFound
	}
	spec, ok := models.ByPrefix(prefix)
	if !ok {
		return nil, notFound
	}
	if err := s.Ready(); err != nil {
		return nil, err
	}

	info, err := s.records.FindByReference(ctx, spec, referenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "tracking lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"category", spec.Category,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tracking lookup failed")
	}
	return info, nil
}
