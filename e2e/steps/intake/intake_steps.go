package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// File is one attachment sent with a multipart submission.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// TestContext is what the steps need from the scenario harness.
type TestContext interface {
	PostJSON(path string, body any) error
	PostMultipart(path string, payload any, files []File) error
	GET(path string) error
	Fetch(url string) ([]byte, error)
	LastStatus() int
	LastJSON() map[string]any
}

// RegisterSteps registers intake step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &intakeSteps{tc: tc}

	ctx.Step(`^a citizen report about "([^"]*)" in "([^"]*)"$`, s.aReport)
	ctx.Step(`^the report has no description$`, s.noDescription)
	ctx.Step(`^a photo "([^"]*)" is attached$`, s.attachPhoto)
	ctx.Step(`^I submit the report$`, s.submitReport)
	ctx.Step(`^I submit the report as JSON$`, s.submitReportJSON)
	ctx.Step(`^the response status should be (\d+)$`, s.statusShouldBe)
	ctx.Step(`^the response should contain a reference ID starting with "([^"]*)"$`, s.referencePrefix)
	ctx.Step(`^the report status should be "([^"]*)"$`, s.reportStatus)
	ctx.Step(`^the report should have (\d+) attachment URLs?$`, s.attachmentCount)
	ctx.Step(`^the attachment URL should contain "([^"]*)"$`, s.attachmentURLContains)
	ctx.Step(`^the attachment should be retrievable$`, s.attachmentRetrievable)
	ctx.Step(`^the error code should be "([^"]*)"$`, s.errorCode)
	ctx.Step(`^the error details should be "([^"]*)"$`, s.errorDetails)
	ctx.Step(`^I track the submission$`, s.trackSubmission)
	ctx.Step(`^I track the reference "([^"]*)"$`, s.trackReference)
	ctx.Step(`^the tracked status should be "([^"]*)"$`, s.trackedStatus)
}

type intakeSteps struct {
	tc        TestContext
	payload   map[string]any
	files     []File
	reference string
}

func (s *intakeSteps) aReport(_ context.Context, category, lga string) error {
	s.payload = map[string]any{
		"category":    category,
		"description": "Reported through the e2e suite",
		"lga":         lga,
	}
	s.files = nil
	return nil
}

func (s *intakeSteps) noDescription(context.Context) error {
	delete(s.payload, "description")
	return nil
}

func (s *intakeSteps) attachPhoto(_ context.Context, name string) error {
	s.files = append(s.files, File{Field: "photo", Name: name, ContentType: "image/jpeg", Data: []byte("e2e-" + name)})
	return nil
}

func (s *intakeSteps) submitReport(context.Context) error {
	if err := s.tc.PostMultipart("/api/reports", s.payload, s.files); err != nil {
		return err
	}
	s.rememberReference()
	return nil
}

func (s *intakeSteps) submitReportJSON(context.Context) error {
	if err := s.tc.PostJSON("/api/reports", s.payload); err != nil {
		return err
	}
	s.rememberReference()
	return nil
}

func (s *intakeSteps) rememberReference() {
	if ref, ok := s.tc.LastJSON()["referenceId"].(string); ok {
		s.reference = ref
	}
}

func (s *intakeSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d (%v)", want, got, s.tc.LastJSON())
	}
	return nil
}

func (s *intakeSteps) referencePrefix(_ context.Context, prefix string) error {
	if !strings.HasPrefix(s.reference, prefix+"-") {
		return fmt.Errorf("reference %q does not start with %s-", s.reference, prefix)
	}
	return nil
}

func (s *intakeSteps) report() (map[string]any, error) {
	report, ok := s.tc.LastJSON()["report"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response has no report object")
	}
	return report, nil
}

func (s *intakeSteps) reportStatus(_ context.Context, want string) error {
	report, err := s.report()
	if err != nil {
		return err
	}
	if report["status"] != want {
		return fmt.Errorf("expected status %q, got %v", want, report["status"])
	}
	return nil
}

func (s *intakeSteps) urls() ([]string, error) {
	report, err := s.report()
	if err != nil {
		return nil, err
	}
	raw, _ := report["attachment_urls"].([]any)
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		out = append(out, fmt.Sprint(u))
	}
	return out, nil
}

func (s *intakeSteps) attachmentCount(_ context.Context, want int) error {
	urls, err := s.urls()
	if err != nil {
		return err
	}
	if len(urls) != want {
		return fmt.Errorf("expected %d attachment URLs, got %d", want, len(urls))
	}
	return nil
}

func (s *intakeSteps) attachmentURLContains(_ context.Context, fragment string) error {
	urls, err := s.urls()
	if err != nil {
		return err
	}
	for _, u := range urls {
		if strings.Contains(u, fragment) {
			return nil
		}
	}
	return fmt.Errorf("no attachment URL contains %q: %v", fragment, urls)
}

func (s *intakeSteps) attachmentRetrievable(context.Context) error {
	urls, err := s.urls()
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no attachment URLs")
	}
	_, err = s.tc.Fetch(urls[0])
	return err
}

func (s *intakeSteps) errorCode(_ context.Context, want string) error {
	if got := s.tc.LastJSON()["code"]; got != want {
		return fmt.Errorf("expected error code %q, got %v", want, got)
	}
	return nil
}

func (s *intakeSteps) errorDetails(_ context.Context, want string) error {
	if got := s.tc.LastJSON()["details"]; got != want {
		return fmt.Errorf("expected details %q, got %v", want, got)
	}
	return nil
}

func (s *intakeSteps) trackSubmission(context.Context) error {
	return s.tc.GET("/api/submissions/" + s.reference)
}

func (s *intakeSteps) trackReference(_ context.Context, ref string) error {
	return s.tc.GET("/api/submissions/" + ref)
}

func (s *intakeSteps) trackedStatus(_ context.Context, want string) error {
	if got := s.tc.LastJSON()["status"]; got != want {
		return fmt.Errorf("expected tracked status %q, got %v", want, got)
	}
	return nil
}
