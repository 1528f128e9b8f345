package bdd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
	"gorm.io/gorm"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		p := &performanceSteps{s: s}
		ctx.Step(`^performance monitoring is enabled$`, p.performanceMonitoringIsEnabled)
		ctx.Step(`^I create (\d+) users in bulk$`, p.iCreateUsersInBulk)
		ctx.Step(`^there are (\d+) users in the database$`, p.thereAreUsersInTheDatabase)
		ctx.Step(`^there are (\d+) products in the database$`, p.thereAreProductsInTheDatabase)
		ctx.Step(`^I search for users with email domain "([^"]*)"$`, p.iSearchForUsersWithEmailDomain)
		ctx.Step(`^I perform (\d+) concurrent read operations$`, p.iPerformConcurrentReads)
		ctx.Step(`^I perform (\d+) concurrent write operations$`, p.iPerformConcurrentWrites)
		ctx.Step(`^the user count should have increased by (\d+)$`, p.theUserCountShouldHaveIncreasedBy)
		ctx.Step(`^the operation should complete within (\d+) seconds$`, p.theOperationShouldCompleteWithin)
		ctx.Step(`^the query should complete within (\d+) seconds$`, p.theQueryShouldCompleteWithin)
		ctx.Step(`^all users should be created successfully$`, p.allUsersShouldBeCreated)
		ctx.Step(`^the results should be accurate$`, p.theResultsShouldBeAccurate)
		ctx.Step(`^all operations should complete successfully$`, p.allOperationsShouldComplete)
		ctx.Step(`^no deadlocks should occur$`, p.noDeadlocksShouldOccur)
		ctx.Step(`^the total time should be less than (\d+) seconds$`, p.theTotalTimeShouldBeLessThan)
	})
}

type performanceSteps struct {
	s *cucumber.TestScenario

	bulkDuration   time.Duration
	bulkCount      int
	bulkErr        error
	searchDuration time.Duration
	searchRows     []map[string]interface{}
	searchErr      error
	readDuration   time.Duration
	readErrs       []error
	writeDuration  time.Duration
	writeErrs      []error
	preWriteCount  int64
}

func (p *performanceSteps) performanceMonitoringIsEnabled() error {
	p.s.Variables["monitoringStart"] = time.Now()
	return nil
}

// uniqueName yields a collision-free identity for generated fixture rows.
func uniqueName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (p *performanceSteps) iCreateUsersInBulk(count int) error {
	start := time.Now()
	p.bulkErr = p.s.Manager().Session(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			name := uniqueName("bulk_user")
			err := tx.Exec(
				"INSERT INTO users (username, email, created_at, is_active) VALUES (@username, @email, @created_at, 1)",
				map[string]interface{}{
					"username":   name,
					"email":      name + "@example.com",
					"created_at": time.Now().UTC(),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	p.bulkDuration = time.Since(start)
	p.bulkCount = count
	return nil
}

func (p *performanceSteps) thereAreUsersInTheDatabase(count int) error {
	current := p.s.Manager().TableCount("users")
	if current >= int64(count) {
		return nil
	}
	if err := p.iCreateUsersInBulk(count - int(current)); err != nil {
		return err
	}
	return p.bulkErr
}

func (p *performanceSteps) thereAreProductsInTheDatabase(count int) error {
	current := p.s.Manager().TableCount("products")
	if current >= int64(count) {
		return nil
	}
	needed := int(int64(count) - current)
	return p.s.Manager().Session(func(tx *gorm.DB) error {
		for i := 0; i < needed; i++ {
			err := tx.Exec(
				"INSERT INTO products (name, price, category, in_stock, created_at) VALUES (@name, @price, @category, @in_stock, @created_at)",
				map[string]interface{}{
					"name":       uniqueName("bulk_product"),
					"price":      float64(10 + i%90),
					"category":   "generated",
					"in_stock":   10 + i%50,
					"created_at": time.Now().UTC(),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *performanceSteps) iSearchForUsersWithEmailDomain(domain string) error {
	start := time.Now()
	p.searchRows, p.searchErr = p.s.Manager().ExecuteQuery(
		"SELECT * FROM users WHERE email LIKE @domain",
		map[string]interface{}{"domain": "%" + domain + "%"})
	p.searchDuration = time.Since(start)
	return nil
}

func (p *performanceSteps) iPerformConcurrentReads(count int) error {
	start := time.Now()
	p.readErrs = fanOut(count, func(int) error {
		_, err := p.s.Manager().ExecuteQuery("SELECT COUNT(*) AS count FROM users", nil)
		return err
	})
	p.readDuration = time.Since(start)
	return nil
}

func (p *performanceSteps) iPerformConcurrentWrites(count int) error {
	p.preWriteCount = p.s.Manager().TableCount("users")
	start := time.Now()
	p.writeErrs = fanOut(count, func(i int) error {
		name := uniqueName(fmt.Sprintf("concurrent_user_%d", i))
		_, err := p.s.Manager().ExecuteNonQuery(
			"INSERT INTO users (username, email, created_at, is_active) VALUES (@username, @email, @created_at, 1)",
			map[string]interface{}{
				"username":   name,
				"email":      name + "@example.com",
				"created_at": time.Now().UTC(),
			})
		return err
	})
	p.writeDuration = time.Since(start)
	return nil
}

// fanOut runs fn count times in parallel and returns the non-nil errors.
func fanOut(count int, fn func(i int) error) []error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return errs
}

// theUserCountShouldHaveIncreasedBy proves the concurrent writes all landed
// as distinct rows rather than colliding.
func (p *performanceSteps) theUserCountShouldHaveIncreasedBy(delta int) error {
	now := p.s.Manager().TableCount("users")
	if got := now - p.preWriteCount; got != int64(delta) {
		return fmt.Errorf("expected user count to grow by %d, grew by %d", delta, got)
	}
	return nil
}

func (p *performanceSteps) theOperationShouldCompleteWithin(maxSeconds int) error {
	limit := time.Duration(maxSeconds) * time.Second
	elapsed := p.bulkDuration
	if elapsed == 0 {
		elapsed = p.searchDuration
	}
	if elapsed == 0 {
		return fmt.Errorf("no timed operation recorded in scenario")
	}
	if elapsed > limit {
		return fmt.Errorf("operation took %s, expected at most %s", elapsed, limit)
	}
	return nil
}

func (p *performanceSteps) theQueryShouldCompleteWithin(maxSeconds int) error {
	limit := time.Duration(maxSeconds) * time.Second
	if p.searchDuration > limit {
		return fmt.Errorf("query took %s, expected at most %s", p.searchDuration, limit)
	}
	return nil
}

func (p *performanceSteps) allUsersShouldBeCreated() error {
	if p.bulkErr != nil {
		return fmt.Errorf("bulk user creation failed: %w", p.bulkErr)
	}
	if p.bulkCount == 0 {
		return fmt.Errorf("no bulk creation recorded in scenario")
	}
	return nil
}

func (p *performanceSteps) theResultsShouldBeAccurate() error {
	if p.searchErr != nil {
		return fmt.Errorf("search failed: %w", p.searchErr)
	}
	for _, row := range p.searchRows {
		email, _ := row["email"].(string)
		if email == "" {
			return fmt.Errorf("search returned a row without an email")
		}
	}
	return nil
}

func (p *performanceSteps) allOperationsShouldComplete() error {
	if len(p.readErrs) > 0 {
		return fmt.Errorf("%d concurrent reads failed, first: %v", len(p.readErrs), p.readErrs[0])
	}
	if len(p.writeErrs) > 0 {
		return fmt.Errorf("%d concurrent writes failed, first: %v", len(p.writeErrs), p.writeErrs[0])
	}
	return nil
}

func (p *performanceSteps) noDeadlocksShouldOccur() error {
	return p.allOperationsShouldComplete()
}

func (p *performanceSteps) theTotalTimeShouldBeLessThan(maxSeconds int) error {
	limit := time.Duration(maxSeconds) * time.Second
	total := p.readDuration
	if p.writeDuration > total {
		total = p.writeDuration
	}
	if total > limit {
		return fmt.Errorf("total time %s, expected at most %s", total, limit)
	}
	return nil
}
