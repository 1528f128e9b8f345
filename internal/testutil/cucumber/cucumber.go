// Package cucumber provides a godog-based BDD framework for database testing.
//
// Variables are scoped to the scenario. The last query result, affected-row
// count and error are stored on the scenario so assertion steps from any
// module can inspect what the previous action step did.
//
// Variable resolution supports:
//   - ${variableName}        → scenario variable lookup
//   - ${variable.field}      → nested field access (maps, slices, structs)
package cucumber

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/db"
)

// NewTestSuite returns a suite bound to the given manager and config.
func NewTestSuite(cfg *config.Config, manager *db.Manager) *TestSuite {
	return &TestSuite{
		Config:  cfg,
		Manager: manager,
		Extra:   map[string]interface{}{},
	}
}

// DefaultOptions returns godog options honoring the GODOG_* environment
// variables the test orchestrator sets (format, tags, stop-on-failure).
func DefaultOptions() godog.Options {
	opts := godog.Options{
		Output:      colors.Colored(os.Stdout),
		Format:      "progress",
		Paths:       []string{"features"},
		Randomize:   time.Now().UTC().UnixNano(),
		Concurrency: 1,
	}
	if format := os.Getenv("GODOG_FORMAT"); format != "" {
		opts.Format = format
	}
	if tags := os.Getenv("GODOG_TAGS"); tags != "" {
		opts.Tags = tags
	}
	if stop, _ := strconv.ParseBool(os.Getenv("GODOG_STOP_ON_FAILURE")); stop {
		opts.StopOnFailure = true
	}
	return opts
}

// ApplyReportOptions configures junit XML output when GODOG_REPORT_DIR is set.
// Pass t.Name() as testName; slashes are replaced with dashes to form the
// filename. Returns a cleanup function that must be called (or deferred)
// after the test runs.
func ApplyReportOptions(opts *godog.Options, testName string) func() {
	reportDir := os.Getenv("GODOG_REPORT_DIR")
	if reportDir == "" {
		return func() {}
	}
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return func() {}
	}
	safeName := strings.ReplaceAll(testName, "/", "-")
	path := filepath.Join(reportDir, safeName+".xml")
	f, err := os.Create(path)
	if err != nil {
		return func() {}
	}
	opts.Output = f
	opts.Format = "junit"
	return func() { _ = f.Close() }
}

// TestSuite holds state global to all test scenarios.
type TestSuite struct {
	Config   *config.Config
	Manager  *db.Manager
	Mu       sync.Mutex
	TestingT *testing.T
	Extra    map[string]interface{} // additional test-scoped objects
}

// TestScenario holds state for a single scenario. Not accessed concurrently.
type TestScenario struct {
	Suite     *TestSuite
	Variables map[string]interface{}

	// Result of the most recent database action step.
	LastRows     []map[string]interface{}
	LastAffected int64
	LastErr      error
	LastQuery    string
}

func (s *TestScenario) Logf(format string, args ...any) {
	s.Suite.TestingT.Logf(format, args...)
}

// Manager returns the connection/session manager under test.
func (s *TestScenario) Manager() *db.Manager {
	return s.Suite.Manager
}

// RecordRows stores a query result (or its error) as the last operation.
func (s *TestScenario) RecordRows(query string, rows []map[string]interface{}, err error) {
	s.LastQuery = query
	s.LastRows = rows
	s.LastAffected = int64(len(rows))
	s.LastErr = err
}

// RecordExec stores a non-query result (or its error) as the last operation.
func (s *TestScenario) RecordExec(query string, affected int64, err error) {
	s.LastQuery = query
	s.LastRows = nil
	s.LastAffected = affected
	s.LastErr = err
}

// MustSucceed returns the last recorded error, attributing the statement
// that produced it.
func (s *TestScenario) MustSucceed() error {
	if s.LastErr != nil {
		return fmt.Errorf("operation failed: %w (statement: %s)", s.LastErr, s.LastQuery)
	}
	return nil
}

// Expand replaces ${var} in the string based on scenario variables.
func (s *TestScenario) Expand(value string) (result string, rerr error) {
	return os.Expand(value, func(name string) string {
		res, err := s.ResolveString(name)
		if err != nil {
			rerr = err
			return ""
		}
		return res
	}), rerr
}

func (s *TestScenario) ResolveString(name string) (string, error) {
	value, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	return ToString(value, name)
}

// ToString renders a resolved variable the way feature files expect to
// compare it: integers without exponents, floats without trailing zeros.
func ToString(value interface{}, name string) (string, error) {
	switch value := value.(type) {
	case string:
		return value, nil
	case bool:
		if value {
			return "true", nil
		}
		return "false", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value), nil
	case float32, float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", value), "0"), "."), nil
	case nil:
		return "", nil
	case error:
		return "", fmt.Errorf("failed to evaluate selection: %s: %w", name, value)
	}
	return fmt.Sprintf("%v", value), nil
}

func (s *TestScenario) Resolve(name string) (interface{}, error) {
	parts := strings.Split(name, ".")
	value, found := s.Variables[parts[0]]
	if !found {
		return nil, fmt.Errorf("variable ${%s} not defined yet", parts[0])
	}

	var err error
	for _, part := range parts[1:] {
		value, err = s.SelectChild(value, part)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

func (s *TestScenario) SelectChild(value any, path string) (any, error) {
	v := reflect.ValueOf(value)

	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(path)
		if v.Type().Key() != key.Type() {
			return nil, fmt.Errorf("cannot select map key %s from %s", path, v.Type())
		}
		v = v.MapIndex(key)
		if !v.IsValid() {
			return nil, fmt.Errorf("map key %s not found", path)
		}
	case reflect.Slice:
		index, err := strconv.Atoi(path)
		if err != nil {
			return nil, fmt.Errorf("cannot select slice index %s from %s", path, v.Type())
		}
		if index < 0 || index >= v.Len() {
			return nil, fmt.Errorf("slice index %s out of range", path)
		}
		v = v.Index(index)
	case reflect.Struct:
		f := v.FieldByName(path)
		if f.IsValid() {
			v = f
		} else {
			return nil, fmt.Errorf("struct field %s not found", path)
		}
	default:
		return nil, fmt.Errorf("can't navigate to '%s' on type of %s", path, v.Type())
	}
	return v.Interface(), nil
}

// RowsMustMatch compares materialized rows against a godog table whose first
// row is the header. Expected cell values are variable-expanded. On mismatch
// the error carries a unified diff of the rendered tables.
func (s *TestScenario) RowsMustMatch(expected *godog.Table, rows []map[string]interface{}) error {
	if len(expected.Rows) < 2 {
		return fmt.Errorf("expected table must have a header row and at least one data row")
	}

	headers := make([]string, len(expected.Rows[0].Cells))
	for i, cell := range expected.Rows[0].Cells {
		headers[i] = cell.Value
	}

	if len(expected.Rows)-1 != len(rows) {
		return fmt.Errorf("expected %d data row(s), got %d", len(expected.Rows)-1, len(rows))
	}

	var expectedLines, actualLines []string
	matched := true
	for rowIdx := 1; rowIdx < len(expected.Rows); rowIdx++ {
		row := rows[rowIdx-1]
		var expCells, actCells []string
		for colIdx, cell := range expected.Rows[rowIdx].Cells {
			expanded, err := s.Expand(cell.Value)
			if err != nil {
				return err
			}
			actual, err := ToString(row[headers[colIdx]], headers[colIdx])
			if err != nil {
				return err
			}
			expCells = append(expCells, expanded)
			actCells = append(actCells, actual)
			if expanded != actual {
				matched = false
			}
		}
		expectedLines = append(expectedLines, "| "+strings.Join(expCells, " | ")+" |")
		actualLines = append(actualLines, "| "+strings.Join(actCells, " | ")+" |")
	}
	if matched {
		return nil
	}

	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(expectedLines, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(actualLines, "\n") + "\n"),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return fmt.Errorf("result rows do not match expected, diff:\n%s", diff)
}

// StepModules is the list of functions used to register steps with a
// godog.ScenarioContext.
var StepModules []func(ctx *godog.ScenarioContext, s *TestScenario)

// InitializeScenario wires every registered step module into a fresh
// scenario.
func (suite *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	s := &TestScenario{
		Suite:     suite,
		Variables: map[string]interface{}{},
	}

	for _, module := range StepModules {
		module(ctx, s)
	}
}
