// Package objectstore holds the attachment storage backends: a hosted
// storage REST API, a local directory served by the portal itself, and an
// in-memory store for tests.
package objectstore

import (
	"errors"
	"path"
	"strings"
)

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// Upsert permits overwriting an existing object. Intake always writes
	// with Upsert false so a path collision surfaces as ErrAlreadyExists.
	Upsert bool
}

var errInvalidKey = errors.New("objectstore: invalid bucket or path")

// cleanKey validates a bucket/path pair and returns the joined object key.
func cleanKey(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || objectPath == "" {
		return "", errInvalidKey
	}
	cleaned := path.Clean("/" + objectPath)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(objectPath, "/") {
		return "", errInvalidKey
	}
	return bucket + "/" + cleaned, nil
}

func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
