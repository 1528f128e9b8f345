package bdd

import (
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		u := &userSteps{s: s}
		ctx.Step(`^a user exists with username "([^"]*)"$`, u.aUserExists)
		ctx.Step(`^I create a new user with username "([^"]*)" and email "([^"]*)"$`, u.iCreateANewUser)
		ctx.Step(`^I retrieve the user by username "([^"]*)"$`, u.iRetrieveTheUser)
		ctx.Step(`^I update the user email to "([^"]*)"$`, u.iUpdateTheUserEmail)
		ctx.Step(`^I delete the user with username "([^"]*)"$`, u.iDeleteTheUser)
		ctx.Step(`^I try to create a user with duplicate username "([^"]*)"$`, u.iCreateADuplicateUser)
		ctx.Step(`^the user should be created successfully$`, u.theUserShouldBeCreated)
		ctx.Step(`^the user should be found$`, u.theUserShouldBeFound)
		ctx.Step(`^the user email should be "([^"]*)"$`, u.theUserEmailShouldBe)
		ctx.Step(`^the user email should be updated successfully$`, u.theUserEmailShouldBeUpdated)
		ctx.Step(`^the user email should remain unchanged$`, u.theUserEmailShouldRemainUnchanged)
		ctx.Step(`^the user should be deleted successfully$`, u.theUserShouldBeDeleted)
		ctx.Step(`^the user count should be (\d+)$`, u.theUserCountShouldBe)
		ctx.Step(`^the operation should fail with constraint violation$`, u.theOperationShouldFailWithConstraintViolation)
		ctx.Step(`^the error message should contain "([^"]*)"$`, u.theErrorMessageShouldContain)
	})
}

type userSteps struct {
	s               *cucumber.TestScenario
	retrieved       map[string]interface{}
	updatedEmail    string
	deletedUsername string
}

func (u *userSteps) lookup(username string) (map[string]interface{}, error) {
	rows, err := u.s.Manager().ExecuteQuery(
		"SELECT * FROM users WHERE username = @username",
		map[string]interface{}{"username": username})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (u *userSteps) aUserExists(username string) error {
	user, err := u.lookup(username)
	if err != nil {
		return fmt.Errorf("checking user existence: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s not found", username)
	}
	u.s.Variables["currentUser"] = user
	return nil
}

func (u *userSteps) iCreateANewUser(username, email string) error {
	query := "INSERT INTO users (username, email, created_at, is_active) VALUES (@username, @email, @created_at, 1)"
	affected, err := u.s.Manager().ExecuteNonQuery(query, map[string]interface{}{
		"username":   username,
		"email":      email,
		"created_at": time.Now().UTC(),
	})
	u.s.RecordExec(query, affected, err)
	u.s.Variables["lastCreatedUser"] = map[string]interface{}{"username": username, "email": email}
	return nil
}

func (u *userSteps) iRetrieveTheUser(username string) error {
	user, err := u.lookup(username)
	if err != nil {
		u.s.RecordRows("SELECT * FROM users WHERE username = ...", nil, err)
		return nil
	}
	u.retrieved = user
	return nil
}

func (u *userSteps) iUpdateTheUserEmail(newEmail string) error {
	current, ok := u.s.Variables["currentUser"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no current user in scenario")
	}
	query := "UPDATE users SET email = @email WHERE username = @username"
	affected, err := u.s.Manager().ExecuteNonQuery(query, map[string]interface{}{
		"email":    newEmail,
		"username": current["username"],
	})
	u.s.RecordExec(query, affected, err)
	u.updatedEmail = newEmail
	return nil
}

func (u *userSteps) iDeleteTheUser(username string) error {
	query := "DELETE FROM users WHERE username = @username"
	affected, err := u.s.Manager().ExecuteNonQuery(query,
		map[string]interface{}{"username": username})
	u.s.RecordExec(query, affected, err)
	u.deletedUsername = username
	return nil
}

func (u *userSteps) iCreateADuplicateUser(username string) error {
	query := "INSERT INTO users (username, email, created_at, is_active) VALUES (@username, @email, @created_at, 1)"
	affected, err := u.s.Manager().ExecuteNonQuery(query, map[string]interface{}{
		"username":   username,
		"email":      "duplicate@example.com",
		"created_at": time.Now().UTC(),
	})
	// A constraint violation is the expected outcome here, so the error is
	// recorded instead of failing the step.
	u.s.RecordExec(query, affected, err)
	return nil
}

func (u *userSteps) theUserShouldBeCreated() error {
	if err := u.s.MustSucceed(); err != nil {
		return err
	}
	if u.s.LastAffected == 0 {
		return fmt.Errorf("user creation affected no rows")
	}
	return nil
}

func (u *userSteps) theUserShouldBeFound() error {
	if u.retrieved == nil {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (u *userSteps) theUserEmailShouldBe(expected string) error {
	if u.retrieved != nil {
		if actual := u.retrieved["email"]; actual != expected {
			return fmt.Errorf("expected email %s, got %v", expected, actual)
		}
		return nil
	}
	current, ok := u.s.Variables["currentUser"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no retrieved or current user in scenario")
	}
	user, err := u.lookup(fmt.Sprintf("%v", current["username"]))
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %v no longer exists", current["username"])
	}
	if actual := user["email"]; actual != expected {
		return fmt.Errorf("expected email %s, got %v", expected, actual)
	}
	return nil
}

func (u *userSteps) theUserEmailShouldBeUpdated() error {
	if err := u.s.MustSucceed(); err != nil {
		return err
	}
	if u.s.LastAffected == 0 {
		return fmt.Errorf("email update affected no rows")
	}
	if u.updatedEmail == "" {
		return fmt.Errorf("no email update recorded in scenario")
	}
	return nil
}

func (u *userSteps) theUserEmailShouldRemainUnchanged() error {
	current, ok := u.s.Variables["currentUser"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no current user in scenario")
	}
	user, err := u.lookup(fmt.Sprintf("%v", current["username"]))
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %v no longer exists", current["username"])
	}
	if user["email"] != current["email"] {
		return fmt.Errorf("user email changed after rollback: %v != %v", user["email"], current["email"])
	}
	return nil
}

func (u *userSteps) theUserShouldBeDeleted() error {
	if err := u.s.MustSucceed(); err != nil {
		return err
	}
	if u.s.LastAffected == 0 {
		return fmt.Errorf("user deletion affected no rows")
	}
	user, err := u.lookup(u.deletedUsername)
	if err != nil {
		return err
	}
	if user != nil {
		return fmt.Errorf("user %s still exists after deletion", u.deletedUsername)
	}
	return nil
}

func (u *userSteps) theUserCountShouldBe(expected int) error {
	actual := u.s.Manager().TableCount("users")
	if actual != int64(expected) {
		return fmt.Errorf("expected %d users, got %d", expected, actual)
	}
	return nil
}

func (u *userSteps) theOperationShouldFailWithConstraintViolation() error {
	if u.s.LastErr == nil {
		return fmt.Errorf("operation should have failed but succeeded")
	}
	if u.s.LastAffected != 0 {
		return fmt.Errorf("operation affected %d rows despite failing", u.s.LastAffected)
	}
	return nil
}

func (u *userSteps) theErrorMessageShouldContain(expected string) error {
	if u.s.LastErr == nil {
		return fmt.Errorf("no error recorded in scenario")
	}
	msg := strings.ToLower(u.s.LastErr.Error())
	if !strings.Contains(msg, strings.ToLower(expected)) {
		return fmt.Errorf("expected %q in error message: %s", expected, u.s.LastErr)
	}
	return nil
}
