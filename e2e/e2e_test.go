package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("PORTAL_URL")
	if baseURL == "" {
		t.Skip("PORTAL_URL not set; start the portal and export its base URL")
	}
	tc := NewTestContext(baseURL)

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Tags:     os.Getenv("GODOG_TAGS"),
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
