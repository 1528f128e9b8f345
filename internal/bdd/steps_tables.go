package bdd

import (
	"fmt"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		t := &tableOpSteps{s: s}
		ctx.Step(`^I perform a "(count|schema|truncate)" on table "([^"]*)"$`, t.iPerformATableOperation)
		ctx.Step(`^the operation should be "(successful|failed)"$`, t.theOperationShouldBe)
	})
}

type tableOpSteps struct {
	s         *cucumber.TestScenario
	succeeded bool
	result    interface{}
}

func (t *tableOpSteps) iPerformATableOperation(operation, tableName string) error {
	m := t.s.Manager()
	switch operation {
	case "count":
		rows, err := m.ExecuteQuery(fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", tableName), nil)
		if err != nil || len(rows) == 0 {
			t.succeeded = false
			return nil
		}
		t.result = rows[0]["count"]
		t.succeeded = true
	case "schema":
		schema := m.TableSchema(tableName)
		t.result = len(schema)
		t.succeeded = len(schema) > 0
	case "truncate":
		t.succeeded = m.TruncateTable(tableName)
		t.result = t.succeeded
	default:
		return fmt.Errorf("unknown operation: %s", operation)
	}
	return nil
}

func (t *tableOpSteps) theOperationShouldBe(expected string) error {
	if expected == "successful" && !t.succeeded {
		return fmt.Errorf("table operation failed")
	}
	if expected == "failed" && t.succeeded {
		return fmt.Errorf("table operation should have failed")
	}
	return nil
}
