// Package upload stores submission attachments in object storage under
// collision-resistant paths.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"govportal/internal/intake/models"
	"govportal/internal/objectstore"
	"govportal/internal/platform/metrics"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
)

// Store is the object storage the uploader writes to.
type Store interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, opts objectstore.PutOptions) error
	PublicURL(bucket, path string) string
}

// Uploader writes attachments to a Store.
type Uploader struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	timeout      time.Duration
	concurrency  int
	cacheControl string
	now          func() time.Time
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithTimeout bounds each individual upload.
func WithTimeout(d time.Duration) Option {
	return func(u *Uploader) { u.timeout = d }
}

// WithConcurrency sets how many attachments upload at once. 1 is sequential.
func WithConcurrency(n int) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Uploader) { u.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(u *Uploader) { u.now = now }
}

func WithCacheControl(maxAge string) Option {
	return func(u *Uploader) { u.cacheControl = maxAge }
}

// New creates an Uploader.
func New(store Store, logger *slog.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		store:        store,
		logger:       logger,
		timeout:      30 * time.Second,
		concurrency:  1,
		cacheControl: "3600",
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload writes one attachment under bucket/folder and returns its public URL.
// Objects are never overwritten: a taken path fails with
// sentinel.ErrAlreadyExists and is not retried.
func (u *Uploader) Upload(ctx context.Context, bucket, folder string, a models.Attachment) (models.StoredAttachment, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	path := folder + "/" + Filename(a.Name, u.now())
	if err := u.put(ctx, bucket, path, a); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return models.StoredAttachment{}, fmt.Errorf("store %s/%s: %w", bucket, path, err)
		}
		return models.StoredAttachment{}, err
	}
	return models.StoredAttachment{Bucket: bucket, Path: path, URL: u.store.PublicURL(bucket, path)}, nil
}

func (u *Uploader) put(ctx context.Context, bucket, path string, a models.Attachment) error {
	body, err := a.Open()
	if err != nil {
		return fmt.Errorf("open attachment %q: %w", a.Name, err)
	}
	defer body.Close()
	return u.store.Upload(ctx, bucket, path, body, objectstore.PutOptions{
		ContentType:  a.ContentType,
		CacheControl: u.cacheControl,
	})
}

// Batch is the outcome of uploading a submission's attachments.
type Batch struct {
	// Stored keeps the input order of the attachments that uploaded.
	Stored []models.StoredAttachment
	// Failed names attachments skipped under the tolerant policy.
	Failed []string
}

// UploadAll stores every attachment for spec. Under PolicyFatal the first
// failure aborts with an upload_error; under PolicyTolerant failures are
// logged and skipped.
func (u *Uploader) UploadAll(ctx context.Context, spec models.CategorySpec, folder string, attachments []models.Attachment) (*Batch, error) {
	batch := &Batch{}
	if len(attachments) == 0 || !spec.AcceptsAttachments() {
		return batch, nil
	}

	type outcome struct {
		stored models.StoredAttachment
		err    error
	}
	results := make([]outcome, len(attachments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, a := range attachments {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			stored, err := u.Upload(gctx, spec.Bucket, folder, a)
			results[i] = outcome{stored: stored, err: err}
			u.metrics.IncAttachment(spec.Category.String(), err == nil)
			if err != nil && spec.Policy == models.PolicyFatal {
				return dErrors.Wrap(err, dErrors.CodeUpload, "Failed to upload attachment").WithDetails(a.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpload, "Attachment upload interrupted")
	}

	for i, r := range results {
		name := attachments[i].Name
		switch {
		case r.err != nil:
			u.logger.WarnContext(ctx, "attachment upload failed, skipping",
				"category", spec.Category,
				"file", name,
				"error", r.err,
			)
			batch.Failed = append(batch.Failed, name)
		case r.stored.URL != "":
			batch.Stored = append(batch.Stored, r.stored)
		}
	}
	return batch, nil
}
