package bdd

import (
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
	"github.com/shopspring/decimal"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		o := &orderSteps{s: s}
		ctx.Step(`^orders exist for user "([^"]*)"$`, o.ordersExistForUser)
		ctx.Step(`^I place an order for (\d+) units of "([^"]*)"$`, o.iPlaceAnOrder)
		ctx.Step(`^I retrieve order history for user "([^"]*)"$`, o.iRetrieveOrderHistory)
		ctx.Step(`^I execute a complex query to get user order statistics$`, o.iExecuteUserOrderStatistics)
		ctx.Step(`^the order should be created successfully$`, o.theOrderShouldBeCreated)
		ctx.Step(`^the order total should be (\d+(?:\.\d+)?)$`, o.theOrderTotalShouldBe)
		ctx.Step(`^I should see the order details$`, o.iShouldSeeTheOrderDetails)
		ctx.Step(`^the order count should be greater than (\d+)$`, o.theOrderCountShouldBeGreaterThan)
		ctx.Step(`^the query should return valid results$`, o.theQueryShouldReturnValidResults)
		ctx.Step(`^the results should contain user information with order counts$`, o.theResultsShouldContainOrderCounts)
	})
}

type orderSteps struct {
	s          *cucumber.TestScenario
	orderTotal decimal.Decimal
	history    []map[string]interface{}
	statistics []map[string]interface{}
}

func (o *orderSteps) ordersExistForUser(username string) error {
	rows, err := o.s.Manager().ExecuteQuery(`
		SELECT COUNT(*) AS count FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE u.username = @username`,
		map[string]interface{}{"username": username})
	if err != nil {
		return fmt.Errorf("checking orders: %w", err)
	}
	count, err := toInt64(rows[0]["count"])
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no orders found for user %s", username)
	}
	return nil
}

func (o *orderSteps) iPlaceAnOrder(quantity int, productName string) error {
	user, ok := o.s.Variables["currentUser"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no current user in scenario")
	}
	product, ok := o.s.Variables["currentProduct"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no current product in scenario")
	}

	// Decimal arithmetic keeps the line total exact; 3 * 999.99 must come
	// out as 2999.97, not a float64 approximation.
	unitPrice, err := decimalOf(product["price"])
	if err != nil {
		return fmt.Errorf("product price: %w", err)
	}
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	query := `INSERT INTO orders (user_id, product_id, quantity, total_amount, order_date, status)
		VALUES (@user_id, @product_id, @quantity, @total_amount, @order_date, 'pending')`
	affected, err := o.s.Manager().ExecuteNonQuery(query, map[string]interface{}{
		"user_id":      user["id"],
		"product_id":   product["id"],
		"quantity":     quantity,
		"total_amount": total.InexactFloat64(),
		"order_date":   time.Now().UTC(),
	})
	o.s.RecordExec(query, affected, err)
	o.orderTotal = total
	o.s.Variables["orderTotal"] = total.InexactFloat64()
	return nil
}

func (o *orderSteps) iRetrieveOrderHistory(username string) error {
	rows, err := o.s.Manager().ExecuteQuery(`
		SELECT o.*, p.name AS product_name, u.username
		FROM orders o
		JOIN users u ON o.user_id = u.id
		JOIN products p ON o.product_id = p.id
		WHERE u.username = @username
		ORDER BY o.order_date DESC`,
		map[string]interface{}{"username": username})
	o.s.RecordRows("order history", rows, err)
	o.history = rows
	return nil
}

func (o *orderSteps) iExecuteUserOrderStatistics() error {
	rows, err := o.s.Manager().ExecuteQuery(`
		SELECT
			u.username,
			u.email,
			COUNT(o.id) AS order_count,
			SUM(o.total_amount) AS total_spent,
			AVG(o.total_amount) AS avg_order_value
		FROM users u
		LEFT JOIN orders o ON u.id = o.user_id
		GROUP BY u.id, u.username, u.email
		ORDER BY total_spent DESC`, nil)
	o.s.RecordRows("user order statistics", rows, err)
	o.statistics = rows
	return nil
}

func (o *orderSteps) theOrderShouldBeCreated() error {
	if err := o.s.MustSucceed(); err != nil {
		return err
	}
	if o.s.LastAffected == 0 {
		return fmt.Errorf("order creation affected no rows")
	}
	return nil
}

func (o *orderSteps) theOrderTotalShouldBe(expected string) error {
	want, err := decimal.NewFromString(expected)
	if err != nil {
		return err
	}
	tolerance := decimal.NewFromFloat(0.01)
	if o.orderTotal.Sub(want).Abs().GreaterThanOrEqual(tolerance) {
		return fmt.Errorf("expected order total %s, got %s", want, o.orderTotal)
	}
	return nil
}

func (o *orderSteps) iShouldSeeTheOrderDetails() error {
	if len(o.history) == 0 {
		return fmt.Errorf("no order history found")
	}
	for _, key := range []string{"id", "user_id", "product_id", "quantity"} {
		if _, ok := o.history[0][key]; !ok {
			return fmt.Errorf("order details missing field %q", key)
		}
	}
	return nil
}

func (o *orderSteps) theOrderCountShouldBeGreaterThan(min int) error {
	if len(o.history) <= min {
		return fmt.Errorf("expected more than %d orders, got %d", min, len(o.history))
	}
	return nil
}

func (o *orderSteps) theQueryShouldReturnValidResults() error {
	if err := o.s.MustSucceed(); err != nil {
		return err
	}
	if len(o.statistics) == 0 {
		return fmt.Errorf("query returned no results")
	}
	for _, key := range []string{"username", "email", "order_count"} {
		if _, ok := o.statistics[0][key]; !ok {
			return fmt.Errorf("query results missing field %q", key)
		}
	}
	return nil
}

func (o *orderSteps) theResultsShouldContainOrderCounts() error {
	for _, row := range o.statistics {
		if _, ok := row["username"]; !ok {
			return fmt.Errorf("username missing from results")
		}
		if _, err := toInt64(row["order_count"]); err != nil {
			return fmt.Errorf("order count is not numeric: %w", err)
		}
	}
	return nil
}

func decimalOf(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("unexpected price type %T", v)
	}
}
