package models

import (
	"bytes"
	"io"
)

// Attachment is one uploaded file extracted from a multipart body.
type Attachment struct {
	Field       string
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// NewAttachment builds an in-memory attachment.
func NewAttachment(field, name, contentType string, data []byte) Attachment {
	return Attachment{
		Field:       field,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// StoredAttachment is the object-store location of an uploaded attachment.
type StoredAttachment struct {
	Bucket string
	Path   string
	URL    string
}

// Normalized is a submission after content-type dispatch.
type Normalized struct {
	Payload     Payload
	Attachments []Attachment
	// PayloadErr is set when a multipart "payload" field was present but not
	// valid JSON; Payload is then empty.
	PayloadErr error
}

// URLs returns the public URLs of stored attachments, or nil when there are none.
func URLs(stored []StoredAttachment) []string {
	if len(stored) == 0 {
		return nil
	}
	out := make([]string, len(stored))
	for i, s := range stored {
		out[i] = s.URL
	}
	return out
}
