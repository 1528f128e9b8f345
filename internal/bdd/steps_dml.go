package bdd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		d := &dmlSteps{s: s}
		ctx.Step(`^an empty table "([^"]*)" exists$`, d.anEmptyTableExists)
		ctx.Step(`^I insert a record into "([^"]*)" with values$`, d.iInsertARecord)
		ctx.Step(`^I insert the following records into "([^"]*)"$`, d.iInsertTheFollowingRecords)
		ctx.Step(`^I update the record with id (\d+) in "([^"]*)" with$`, d.iUpdateTheRecordByID)
		ctx.Step(`^I delete the record with id (\d+) from "([^"]*)"$`, d.iDeleteTheRecordByID)
		ctx.Step(`^I select all records from "([^"]*)"$`, d.iSelectAllRecords)
		ctx.Step(`^I select columns "([^"]*)" from "([^"]*)"$`, d.iSelectColumns)
		ctx.Step(`^the record should be inserted successfully$`, d.theRecordShouldBeInserted)
		ctx.Step(`^(\d+) records should be inserted successfully$`, d.recordsShouldBeInserted)
		ctx.Step(`^the record should be updated successfully$`, d.theRecordShouldBeUpdated)
		ctx.Step(`^the record should be deleted successfully$`, d.theRecordShouldBeDeleted)
		ctx.Step(`^(\d+) records? should be affected$`, d.recordsShouldBeAffected)
		ctx.Step(`^the table "([^"]*)" should have (\d+) records?$`, d.theTableShouldHaveRecords)
		ctx.Step(`^the query should return (\d+) records$`, d.theQueryShouldReturnRecords)
		ctx.Step(`^the query should return records with only specified columns$`, d.theQueryShouldReturnOnlySpecifiedColumns)
		ctx.Step(`^the query should return the following records$`, d.theQueryShouldReturnTheFollowingRecords)
	})
}

type dmlSteps struct {
	s               *cucumber.TestScenario
	insertedCount   int
	selectedColumns []string
}

// literal maps a feature-file cell onto a typed bind value. Feature files
// spell booleans and NULL out as words; numeric-looking cells bind as
// numbers so strict backends accept them into numeric columns.
func literal(cell string) interface{} {
	switch strings.ToLower(cell) {
	case "true":
		return 1
	case "false":
		return 0
	case "null":
		return nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}

// columnValuePairs parses a two-column godog table with a column/value header.
func columnValuePairs(table *godog.Table) ([]string, []interface{}, error) {
	if len(table.Rows) < 2 {
		return nil, nil, fmt.Errorf("value table must have a header row and at least one data row")
	}
	header := table.Rows[0]
	if len(header.Cells) != 2 || header.Cells[0].Value != "column" || header.Cells[1].Value != "value" {
		return nil, nil, fmt.Errorf("value table header must be | column | value |")
	}
	var columns []string
	var values []interface{}
	for _, row := range table.Rows[1:] {
		columns = append(columns, row.Cells[0].Value)
		values = append(values, literal(row.Cells[1].Value))
	}
	return columns, values, nil
}

func (d *dmlSteps) anEmptyTableExists(tableName string) error {
	m := d.s.Manager()
	if !m.TableExists(tableName) {
		var query string
		switch tableName {
		case "test_users":
			query = `CREATE TABLE test_users (
				id INTEGER PRIMARY KEY,
				name VARCHAR(100),
				email VARCHAR(150),
				age INTEGER,
				salary DECIMAL(10,2),
				is_active BOOLEAN DEFAULT TRUE)`
		case "test_products":
			query = `CREATE TABLE test_products (
				id INTEGER PRIMARY KEY,
				name VARCHAR(100),
				price DECIMAL(10,2),
				category VARCHAR(50),
				in_stock INTEGER DEFAULT 0)`
		default:
			query = fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY, data TEXT)", tableName)
		}
		if _, err := m.ExecuteNonQuery(query, nil); err != nil {
			return fmt.Errorf("creating table %s: %w", tableName, err)
		}
	}
	if !m.TruncateTable(tableName) {
		return fmt.Errorf("could not empty table %s", tableName)
	}
	return nil
}

func (d *dmlSteps) iInsertARecord(tableName string, values *godog.Table) error {
	columns, binds, err := columnValuePairs(values)
	if err != nil {
		return err
	}
	placeholders := make([]string, len(columns))
	params := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		placeholders[i] = "@" + col
		params[col] = binds[i]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	affected, execErr := d.s.Manager().ExecuteNonQuery(query, params)
	d.s.RecordExec(query, affected, execErr)
	return nil
}

func (d *dmlSteps) iInsertTheFollowingRecords(tableName string, records *godog.Table) error {
	if len(records.Rows) < 2 {
		return fmt.Errorf("record table must have a header row and at least one data row")
	}
	columns := make([]string, len(records.Rows[0].Cells))
	placeholders := make([]string, len(columns))
	for i, cell := range records.Rows[0].Cells {
		columns[i] = cell.Value
		placeholders[i] = "@" + cell.Value
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	d.insertedCount = 0
	for _, row := range records.Rows[1:] {
		params := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			params[col] = literal(row.Cells[i].Value)
		}
		affected, err := d.s.Manager().ExecuteNonQuery(query, params)
		d.s.RecordExec(query, affected, err)
		if err != nil {
			return nil
		}
		d.insertedCount++
	}
	d.s.LastAffected = int64(d.insertedCount)
	return nil
}

func (d *dmlSteps) iUpdateTheRecordByID(id int, tableName string, values *godog.Table) error {
	columns, binds, err := columnValuePairs(values)
	if err != nil {
		return err
	}
	assignments := make([]string, len(columns))
	params := map[string]interface{}{"id": id}
	for i, col := range columns {
		assignments[i] = col + " = @" + col
		params[col] = binds[i]
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = @id",
		tableName, strings.Join(assignments, ", "))
	affected, execErr := d.s.Manager().ExecuteNonQuery(query, params)
	d.s.RecordExec(query, affected, execErr)
	return nil
}

func (d *dmlSteps) iDeleteTheRecordByID(id int, tableName string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = @id", tableName)
	affected, err := d.s.Manager().ExecuteNonQuery(query, map[string]interface{}{"id": id})
	d.s.RecordExec(query, affected, err)
	return nil
}

func (d *dmlSteps) iSelectAllRecords(tableName string) error {
	query := fmt.Sprintf("SELECT * FROM %s", tableName)
	rows, err := d.s.Manager().ExecuteQuery(query, nil)
	d.s.RecordRows(query, rows, err)
	d.selectedColumns = nil
	return nil
}

func (d *dmlSteps) iSelectColumns(columns, tableName string) error {
	query := fmt.Sprintf("SELECT %s FROM %s", columns, tableName)
	rows, err := d.s.Manager().ExecuteQuery(query, nil)
	d.s.RecordRows(query, rows, err)
	d.selectedColumns = nil
	for _, col := range strings.Split(columns, ",") {
		d.selectedColumns = append(d.selectedColumns, strings.TrimSpace(col))
	}
	return nil
}

func (d *dmlSteps) theRecordShouldBeInserted() error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if d.s.LastAffected == 0 {
		return fmt.Errorf("no records were inserted")
	}
	return nil
}

func (d *dmlSteps) recordsShouldBeInserted(expected int) error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if d.insertedCount != expected {
		return fmt.Errorf("expected %d records inserted, got %d", expected, d.insertedCount)
	}
	return nil
}

func (d *dmlSteps) theRecordShouldBeUpdated() error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if d.s.LastAffected == 0 {
		return fmt.Errorf("no records were updated")
	}
	return nil
}

func (d *dmlSteps) theRecordShouldBeDeleted() error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if d.s.LastAffected == 0 {
		return fmt.Errorf("no records were deleted")
	}
	return nil
}

func (d *dmlSteps) recordsShouldBeAffected(expected int) error {
	if d.s.LastAffected != int64(expected) {
		return fmt.Errorf("expected %d affected records, got %d", expected, d.s.LastAffected)
	}
	return nil
}

func (d *dmlSteps) theTableShouldHaveRecords(tableName string, expected int) error {
	if actual := d.s.Manager().TableCount(tableName); actual != int64(expected) {
		return fmt.Errorf("expected %d records in %s, got %d", expected, tableName, actual)
	}
	return nil
}

func (d *dmlSteps) theQueryShouldReturnRecords(expected int) error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if len(d.s.LastRows) != expected {
		return fmt.Errorf("expected %d records, got %d", expected, len(d.s.LastRows))
	}
	return nil
}

func (d *dmlSteps) theQueryShouldReturnOnlySpecifiedColumns() error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	if len(d.s.LastRows) == 0 {
		return nil
	}
	expected := map[string]bool{}
	for _, col := range d.selectedColumns {
		expected[col] = true
	}
	row := d.s.LastRows[0]
	if len(row) != len(expected) {
		return fmt.Errorf("expected columns %v, got %d columns", d.selectedColumns, len(row))
	}
	for col := range row {
		if !expected[col] {
			return fmt.Errorf("unexpected column %q in result", col)
		}
	}
	return nil
}

func (d *dmlSteps) theQueryShouldReturnTheFollowingRecords(expected *godog.Table) error {
	if err := d.s.MustSucceed(); err != nil {
		return err
	}
	return d.s.RowsMustMatch(expected, d.s.LastRows)
}
