package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"govportal/pkg/platform/sentinel"
)

// Object is a stored blob in the memory store.
type Object struct {
	Data         []byte
	ContentType  string
	CacheControl string
}

// Memory is an in-process object store.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
	base    string
	// failUpload, when set, is consulted before each write; a non-nil
	// return fails that upload.
	failUpload func(bucket, path string) error
}

// NewMemory returns an empty store whose public URLs start with base.
func NewMemory(base string) *Memory {
	return &Memory{objects: make(map[string]Object), base: base}
}

// FailUploads installs a hook that can fail individual uploads.
func (m *Memory) FailUploads(fn func(bucket, path string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpload = fn
}

func (m *Memory) Upload(ctx context.Context, bucket, objectPath string, body io.Reader, opts PutOptions) error {
	key, err := cleanKey(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	hook := m.failUpload
	m.mu.RUnlock()
	if hook != nil {
		if err := hook(bucket, objectPath); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read object body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; exists && !opts.Upsert {
		return fmt.Errorf("object %s: %w", key, sentinel.ErrAlreadyExists)
	}
	m.objects[key] = Object{Data: data, ContentType: opts.ContentType, CacheControl: opts.CacheControl}
	return nil
}

func (m *Memory) Download(_ context.Context, bucket, objectPath string) ([]byte, error) {
	obj, ok := m.Object(bucket, objectPath)
	if !ok {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, objectPath, sentinel.ErrNotFound)
	}
	return obj.Data, nil
}

// Object returns the stored object and its metadata.
func (m *Memory) Object(bucket, objectPath string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+objectPath]
	return obj, ok
}

// Len counts stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *Memory) PublicURL(bucket, objectPath string) string {
	return joinURL(m.base, bucket, objectPath)
}
