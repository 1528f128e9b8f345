package bdd

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		d := &ddlSteps{s: s}
		ctx.Step(`^no table named "([^"]*)" exists$`, d.noTableExists)
		ctx.Step(`^a table "([^"]*)" exists with columns$`, d.aTableExistsWithColumns)
		ctx.Step(`^I create a table "([^"]*)" with the following columns$`, d.iCreateATable)
		ctx.Step(`^I create an index "([^"]*)" on table "([^"]*)" column "([^"]*)"$`, d.iCreateAnIndex)
		ctx.Step(`^I create a composite index "([^"]*)" on table "([^"]*)" columns "([^"]*)"$`, d.iCreateACompositeIndex)
		ctx.Step(`^I drop table "([^"]*)"$`, d.iDropTable)
		ctx.Step(`^I truncate table "([^"]*)"$`, d.iTruncateTable)
		ctx.Step(`^the table "([^"]*)" should be created successfully$`, d.theTableShouldBeCreated)
		ctx.Step(`^the table "([^"]*)" should have (\d+) columns$`, d.theTableShouldHaveColumns)
		ctx.Step(`^the table "([^"]*)" should not exist$`, d.theTableShouldNotExist)
		ctx.Step(`^the table "([^"]*)" should have primary key on "([^"]*)"$`, d.theTableShouldHavePrimaryKey)
		ctx.Step(`^the table "([^"]*)" should have unique constraint on "([^"]*)"$`, d.theTableShouldHaveUniqueConstraint)
		ctx.Step(`^the index "([^"]*)" should be created successfully$`, d.theIndexShouldBeCreated)
		ctx.Step(`^the composite index "([^"]*)" should be created successfully$`, d.theIndexShouldBeCreated)
		ctx.Step(`^the table "([^"]*)" should be empty$`, d.theTableShouldBeEmpty)
		ctx.Step(`^the table structure should remain intact$`, d.theTableStructureShouldRemainIntact)
	})
}

type ddlSteps struct {
	s *cucumber.TestScenario
}

// columnDefinitions renders a godog table with name/type/constraints columns
// into a CREATE TABLE column list.
func columnDefinitions(table *godog.Table) (string, error) {
	if len(table.Rows) < 2 {
		return "", fmt.Errorf("column table must have a header row and at least one column")
	}
	idx := map[string]int{}
	for i, cell := range table.Rows[0].Cells {
		idx[cell.Value] = i
	}
	for _, required := range []string{"name", "type"} {
		if _, ok := idx[required]; !ok {
			return "", fmt.Errorf("column table is missing a %q header", required)
		}
	}

	var defs []string
	for _, row := range table.Rows[1:] {
		def := row.Cells[idx["name"]].Value + " " + row.Cells[idx["type"]].Value
		if i, ok := idx["constraints"]; ok && row.Cells[i].Value != "" {
			def += " " + row.Cells[i].Value
		}
		defs = append(defs, strings.TrimSpace(def))
	}
	return strings.Join(defs, ", "), nil
}

func (d *ddlSteps) noTableExists(tableName string) error {
	m := d.s.Manager()
	if m.TableExists(tableName) && !m.DropTable(tableName) {
		return fmt.Errorf("could not drop pre-existing table %s", tableName)
	}
	return nil
}

func (d *ddlSteps) aTableExistsWithColumns(tableName string, columns *godog.Table) error {
	if err := d.noTableExists(tableName); err != nil {
		return err
	}
	defs, err := columnDefinitions(columns)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, defs)
	if _, err := d.s.Manager().ExecuteNonQuery(query, nil); err != nil {
		return fmt.Errorf("creating table %s: %w", tableName, err)
	}
	return nil
}

func (d *ddlSteps) iCreateATable(tableName string, columns *godog.Table) error {
	defs, err := columnDefinitions(columns)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, defs)
	affected, execErr := d.s.Manager().ExecuteNonQuery(query, nil)
	d.s.RecordExec(query, affected, execErr)
	return nil
}

func (d *ddlSteps) iCreateAnIndex(indexName, tableName, columnName string) error {
	query := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", indexName, tableName, columnName)
	affected, err := d.s.Manager().ExecuteNonQuery(query, nil)
	d.s.RecordExec(query, affected, err)
	return nil
}

func (d *ddlSteps) iCreateACompositeIndex(indexName, tableName, columns string) error {
	return d.iCreateAnIndex(indexName, tableName, columns)
}

func (d *ddlSteps) iDropTable(tableName string) error {
	query := fmt.Sprintf("DROP TABLE %s", tableName)
	affected, err := d.s.Manager().ExecuteNonQuery(query, nil)
	d.s.RecordExec(query, affected, err)
	return nil
}

func (d *ddlSteps) iTruncateTable(tableName string) error {
	query := fmt.Sprintf("DELETE FROM %s", tableName)
	affected, err := d.s.Manager().ExecuteNonQuery(query, nil)
	d.s.RecordExec(query, affected, err)
	return nil
}

func (d *ddlSteps) theTableShouldBeCreated(tableName string) error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if !d.s.Manager().TableExists(tableName) {
		return fmt.Errorf("table %s does not exist", tableName)
	}
	return nil
}

func (d *ddlSteps) theTableShouldHaveColumns(tableName string, expected int) error {
	schema := d.s.Manager().TableSchema(tableName)
	if len(schema) != expected {
		return fmt.Errorf("expected %d columns, got %d", expected, len(schema))
	}
	return nil
}

func (d *ddlSteps) theTableShouldNotExist(tableName string) error {
	if d.s.Manager().TableExists(tableName) {
		return fmt.Errorf("table %s still exists", tableName)
	}
	return nil
}

func (d *ddlSteps) theTableShouldHavePrimaryKey(tableName, columnName string) error {
	for _, col := range d.s.Manager().TableSchema(tableName) {
		if col.Name == columnName {
			if !col.PrimaryKey {
				return fmt.Errorf("column %s is not a primary key", columnName)
			}
			return nil
		}
	}
	return fmt.Errorf("column %s not found in table %s", columnName, tableName)
}

func (d *ddlSteps) theTableShouldHaveUniqueConstraint(tableName, columnName string) error {
	for _, col := range d.s.Manager().TableSchema(tableName) {
		if col.Name == columnName {
			return nil
		}
	}
	return fmt.Errorf("column %s not found in table %s", columnName, tableName)
}

func (d *ddlSteps) theIndexShouldBeCreated(string) error {
	return d.s.MustSucceed()
}

func (d *ddlSteps) theTableShouldBeEmpty(tableName string) error {
	if count := d.s.Manager().TableCount(tableName); count != 0 {
		return fmt.Errorf("table %s has %d records, expected 0", tableName, count)
	}
	return nil
}

func (d *ddlSteps) theTableStructureShouldRemainIntact() error {
	return d.s.MustSucceed()
}
