// Package normalize turns an inbound submission (JSON or multipart) into a
// single payload plus attachment list.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"govportal/internal/intake/models"
	dErrors "govportal/pkg/domain-errors"
)

// PayloadField is the multipart field that carries the JSON-encoded payload.
const PayloadField = "payload"

// memoryLimit bounds how much of a multipart body is held in memory before
// the stdlib spills file parts to disk.
const memoryLimit = 8 << 20

// Request normalizes r. fileField names the multipart field holding
// attachments (empty when the category takes none). maxBytes caps the body;
// zero disables the cap.
func Request(w http.ResponseWriter, r *http.Request, fileField string, maxBytes int64) (*models.Normalized, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return multipartRequest(r, fileField)
	}
	return jsonRequest(r.Body)
}

func multipartRequest(r *http.Request, fileField string) (*models.Normalized, error) {
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		return nil, parseError(err, "Invalid multipart body")
	}

	out := &models.Normalized{Payload: models.Payload{}}
	if raw := bodyValue(r, PayloadField); strings.TrimSpace(raw) != "" {
		payload, err := decodeObject(strings.NewReader(raw))
		if err != nil {
			out.PayloadErr = err
		} else {
			out.Payload = payload
		}
	}

	if fileField == "" || r.MultipartForm == nil {
		return out, nil
	}
	for _, fh := range r.MultipartForm.File[fileField] {
		if fh.Size == 0 {
			continue
		}
		out.Attachments = append(out.Attachments, attachment(fileField, fh))
	}
	return out, nil
}

// bodyValue reads a field from the multipart body only. Query parameters are
// ignored.
func bodyValue(r *http.Request, field string) string {
	if r.MultipartForm == nil {
		return ""
	}
	if vs := r.MultipartForm.Value[field]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func attachment(field string, fh *multipart.FileHeader) models.Attachment {
	return models.Attachment{
		Field:       field,
		Name:        fh.Filename,
		ContentType: contentType(fh),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func jsonRequest(body io.Reader) (*models.Normalized, error) {
	payload, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	return &models.Normalized{Payload: payload}, nil
}

// decodeObject reads exactly one JSON object. Numbers stay json.Number so
// coordinates and counts keep their submitted precision.
func decodeObject(body io.Reader) (models.Payload, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, parseError(err, "Could not read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, dErrors.New(dErrors.CodeParse, "Request body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload models.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, parseError(err, "Invalid JSON body")
	}
	if dec.More() {
		return nil, dErrors.New(dErrors.CodeParse, "Invalid JSON body").WithDetails("unexpected data after JSON object")
	}
	if payload == nil {
		return nil, dErrors.New(dErrors.CodeParse, "Invalid JSON body").WithDetails("body must be a JSON object")
	}
	return payload, nil
}

func parseError(err error, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return dErrors.Wrap(err, dErrors.CodeParse, "Request body too large").
			WithDetails(fmt.Sprintf("limit is %d bytes", maxErr.Limit))
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return dErrors.Wrap(err, dErrors.CodeParse, msg).
			WithDetails(fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return dErrors.Wrap(err, dErrors.CodeParse, msg).WithDetails("body must be a JSON object")
	}
	return dErrors.Wrap(err, dErrors.CodeParse, msg)
}
