// Package testutil provides request builders and response assertions for
// handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates a request whose body is body marshaled to JSON.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err, "failed to marshal request body")
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRawRequest creates a request with a literal body and content type.
func NewRawRequest(t *testing.T, method, path, contentType, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

// File is one file part of a multipart request.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Multipart builds a multipart/form-data body.
type Multipart struct {
	t      *testing.T
	buf    bytes.Buffer
	writer *multipart.Writer
}

// NewMultipart starts a multipart body.
func NewMultipart(t *testing.T) *Multipart {
	t.Helper()
	m := &Multipart{t: t}
	m.writer = multipart.NewWriter(&m.buf)
	return m
}

// Payload adds v, marshaled to JSON, as the "payload" field.
func (m *Multipart) Payload(v any) *Multipart {
	m.t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(m.t, err)
	return m.Field("payload", string(raw))
}

// Field adds a plain form field.
func (m *Multipart) Field(name, value string) *Multipart {
	m.t.Helper()
	require.NoError(m.t, m.writer.WriteField(name, value))
	return m
}

// File adds a file part.
func (m *Multipart) File(f File) *Multipart {
	m.t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
	if f.ContentType != "" {
		h.Set("Content-Type", f.ContentType)
	}
	part, err := m.writer.CreatePart(h)
	require.NoError(m.t, err)
	_, err = part.Write(f.Data)
	require.NoError(m.t, err)
	return m
}

// Request closes the body and returns a POST request to path.
func (m *Multipart) Request(path string) *http.Request {
	m.t.Helper()
	require.NoError(m.t, m.writer.Close())
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(m.buf.Bytes()))
	req.Header.Set("Content-Type", m.writer.FormDataContentType())
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the response body into a generic map.
func DecodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "failed to unmarshal response: %s", rr.Body.String())
	return body
}

// UnmarshalResponse unmarshals the response body into T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response")
	return &result
}

// AssertError asserts the status and the envelope's code field.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) map[string]any {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code: %s", rr.Body.String())
	body := DecodeJSON(t, rr)
	assert.Equal(t, code, body["code"], "unexpected error code")
	assert.NotEmpty(t, body["error"], "error message missing")
	return body
}
