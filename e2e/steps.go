package e2e

import (
	"github.com/cucumber/godog"

	"credito/e2e/steps/common"
	"credito/e2e/steps/credit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register credit lookup steps
	credit.RegisterSteps(ctx, tc)
}
