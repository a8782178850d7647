package e2e

import (
	"github.com/cucumber/godog"

	"govportal/e2e/steps/intake"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	intake.RegisterSteps(ctx, tc)
}
