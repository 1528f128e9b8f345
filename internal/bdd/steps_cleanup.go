package bdd

import (
	"context"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/model"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		if s.Suite.Manager == nil {
			return
		}
		// Reset fixture data before each scenario so they never observe
		// each other's writes.
		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			return ctx, model.Reset(s.Suite.Manager)
		})
	})
}
