package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"govportal/e2e/steps/intake"
)

// TestContext holds per-scenario HTTP state against a running portal.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	lastStatus int
	lastBody   []byte
	lastJSON   map[string]any
}

// NewTestContext targets baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Reset clears the last response between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastJSON = nil
}

// PostJSON sends body as application/json.
func (tc *TestContext) PostJSON(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, "application/json", bytes.NewReader(raw))
}

// PostMultipart sends payload as the "payload" field plus files.
func (tc *TestContext) PostMultipart(path string, payload any, files []intake.File) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := w.WriteField("payload", string(raw)); err != nil {
		return err
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, w.FormDataContentType(), &buf)
}

// GET fetches path.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, "", nil)
}

func (tc *TestContext) do(method, path, contentType string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastJSON = nil
	if len(tc.lastBody) > 0 {
		var m map[string]any
		if json.Unmarshal(tc.lastBody, &m) == nil {
			tc.lastJSON = m
		}
	}
	return nil
}

// Fetch downloads an absolute URL and returns its body.
func (tc *TestContext) Fetch(url string) ([]byte, error) {
	resp, err := tc.HTTPClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastJSON() map[string]any { return tc.lastJSON }
