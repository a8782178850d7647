package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"govportal/pkg/platform/sentinel"
)

// Filesystem stores objects under a root directory. The portal serves the
// directory at publicBase so stored URLs are fetchable.
type Filesystem struct {
	root       string
	publicBase string
}

// NewFilesystem creates root if needed.
func NewFilesystem(root, publicBase string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Filesystem{root: root, publicBase: publicBase}, nil
}

// Root is the directory objects live under.
func (f *Filesystem) Root() string { return f.root }

// Upload writes body to root/bucket/path. Without Upsert an existing object
// is never replaced.
func (f *Filesystem) Upload(ctx context.Context, bucket, objectPath string, body io.Reader, opts PutOptions) error {
	key, err := cleanKey(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := filepath.Join(f.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Upsert {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(dest, flags, 0o640)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("object %s: %w", key, sentinel.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("open object %s: %w", key, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("write object %s: %w", key, err)
	}
	return file.Close()
}

// Download reads root/bucket/path.
func (f *Filesystem) Download(_ context.Context, bucket, objectPath string) ([]byte, error) {
	key, err := cleanKey(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("object %s: %w", key, sentinel.ErrNotFound)
	}
	return data, err
}

func (f *Filesystem) PublicURL(bucket, objectPath string) string {
	return joinURL(f.publicBase, bucket, objectPath)
}
