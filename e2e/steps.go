package e2e

import (
	"github.com/cucumber/godog"

	"bloodbank/e2e/steps/common"
	"bloodbank/e2e/steps/units"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	units.RegisterSteps(ctx, tc)
}
