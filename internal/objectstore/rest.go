package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"govportal/pkg/platform/sentinel"
)

// REST talks to a hosted storage service exposing the
// /storage/v1/object/{bucket}/{path} API.
type REST struct {
	baseURL   string
	publicURL string
	key       string
	client    *http.Client
}

// RESTOption configures a REST store.
type RESTOption func(*REST)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) { r.client = c }
}

// WithPublicURL sets the base used for public object URLs when it differs
// from the API base (for example a CDN in front of the bucket).
func WithPublicURL(u string) RESTOption {
	return func(r *REST) {
		if u != "" {
			r.publicURL = u
		}
	}
}

// NewREST creates a client for the storage API at baseURL authenticated
// with serviceKey.
func NewREST(baseURL, serviceKey string, opts ...RESTOption) *REST {
	r := &REST{
		baseURL:   baseURL,
		publicURL: baseURL,
		key:       serviceKey,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type restError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Upload writes body to bucket/path.
func (r *REST) Upload(ctx context.Context, bucket, objectPath string, body io.Reader, opts PutOptions) error {
	key, err := cleanKey(bucket, objectPath)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(r.baseURL, "storage/v1/object", key), body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	r.authorize(req)
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if opts.CacheControl != "" {
		req.Header.Set("Cache-Control", "max-age="+opts.CacheControl)
	}
	req.Header.Set("x-upsert", strconv.FormatBool(opts.Upsert))

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	return r.checked(resp, key)
}

// Download reads bucket/path through the authenticated API.
func (r *REST) Download(ctx context.Context, bucket, objectPath string) ([]byte, error) {
	key, err := cleanKey(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(r.baseURL, "storage/v1/object", key), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer resp.Body.Close()
	if err := r.checked(resp, key); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// PublicURL returns the unauthenticated URL of bucket/path.
func (r *REST) PublicURL(bucket, objectPath string) string {
	return joinURL(r.publicURL, "storage/v1/object/public", bucket, objectPath)
}

func (r *REST) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("apikey", r.key)
}

// checked maps a non-2xx response to an error. Conflicts and missing
// objects map to sentinels; the response body never includes credentials.
func (r *REST) checked(resp *http.Response, key string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body restError
	_ = json.NewDecoder(bytes.NewReader(raw)).Decode(&body)
	status := resp.StatusCode
	if code, err := strconv.Atoi(body.StatusCode); err == nil {
		status = code
	}

	switch status {
	case http.StatusConflict:
		return fmt.Errorf("object %s: %w", key, sentinel.ErrAlreadyExists)
	case http.StatusNotFound:
		return fmt.Errorf("object %s: %w", key, sentinel.ErrNotFound)
	}
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("storage responded %d for %s: %s", resp.StatusCode, key, msg)
}
