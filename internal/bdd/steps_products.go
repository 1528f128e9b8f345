package bdd

import (
	"fmt"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		p := &productSteps{s: s}
		ctx.Step(`^products exist in the inventory$`, p.productsExistInTheInventory)
		ctx.Step(`^a product exists with name "([^"]*)"$`, p.aProductExists)
		ctx.Step(`^I check the inventory for product "([^"]*)"$`, p.iCheckTheInventory)
		ctx.Step(`^the product should be in stock$`, p.theProductShouldBeInStock)
		ctx.Step(`^the stock count should be (\d+)$`, p.theStockCountShouldBe)
	})
}

type productSteps struct {
	s         *cucumber.TestScenario
	inventory map[string]interface{}
}

func (p *productSteps) lookup(name string) (map[string]interface{}, error) {
	rows, err := p.s.Manager().ExecuteQuery(
		"SELECT * FROM products WHERE name = @name",
		map[string]interface{}{"name": name})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (p *productSteps) productsExistInTheInventory() error {
	if count := p.s.Manager().TableCount("products"); count == 0 {
		return fmt.Errorf("no products found in inventory")
	}
	return nil
}

func (p *productSteps) aProductExists(name string) error {
	product, err := p.lookup(name)
	if err != nil {
		return fmt.Errorf("checking product existence: %w", err)
	}
	if product == nil {
		return fmt.Errorf("product %s not found", name)
	}
	p.s.Variables["currentProduct"] = product
	return nil
}

func (p *productSteps) iCheckTheInventory(name string) error {
	product, err := p.lookup(name)
	if err != nil {
		p.s.RecordRows("SELECT * FROM products WHERE name = ...", nil, err)
		return nil
	}
	p.inventory = product
	return nil
}

func (p *productSteps) theProductShouldBeInStock() error {
	if p.inventory == nil {
		return fmt.Errorf("product not found")
	}
	stock, err := toInt64(p.inventory["in_stock"])
	if err != nil {
		return err
	}
	if stock <= 0 {
		return fmt.Errorf("product not in stock")
	}
	return nil
}

func (p *productSteps) theStockCountShouldBe(expected int) error {
	if p.inventory == nil {
		return fmt.Errorf("product not found")
	}
	stock, err := toInt64(p.inventory["in_stock"])
	if err != nil {
		return err
	}
	if stock != int64(expected) {
		return fmt.Errorf("expected stock count %d, got %d", expected, stock)
	}
	return nil
}

// toInt64 coerces the integer-ish values drivers return for numeric columns.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
