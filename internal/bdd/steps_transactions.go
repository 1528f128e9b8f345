package bdd

import (
	"fmt"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
	"gorm.io/gorm"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		t := &transactionSteps{s: s}
		ctx.Step(`^I start a transaction$`, t.iStartATransaction)
		ctx.Step(`^I update the user email within the transaction to "([^"]*)"$`, t.iUpdateTheUserEmailWithinTheTransaction)
		ctx.Step(`^I rollback the transaction$`, t.iRollbackTheTransaction)
		ctx.Step(`^I commit the transaction$`, t.iCommitTheTransaction)
	})
}

type transactionSteps struct {
	s  *cucumber.TestScenario
	tx *gorm.DB
}

func (t *transactionSteps) iStartATransaction() error {
	tx, err := t.s.Manager().Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	t.tx = tx
	return nil
}

func (t *transactionSteps) iUpdateTheUserEmailWithinTheTransaction(newEmail string) error {
	if t.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	current, ok := t.s.Variables["currentUser"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no current user in scenario")
	}
	return t.tx.Exec(
		"UPDATE users SET email = @email WHERE username = @username",
		map[string]interface{}{"email": newEmail, "username": current["username"]},
	).Error
}

func (t *transactionSteps) iRollbackTheTransaction() error {
	if t.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := t.tx.Rollback().Error
	t.tx = nil
	return err
}

func (t *transactionSteps) iCommitTheTransaction() error {
	if t.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := t.tx.Commit().Error
	t.tx = nil
	return err
}
