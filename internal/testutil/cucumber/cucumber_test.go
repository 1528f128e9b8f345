package cucumber

import (
	"testing"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScenario() *TestScenario {
	return &TestScenario{
		Suite:     &TestSuite{Extra: map[string]interface{}{}},
		Variables: map[string]interface{}{},
	}
}

func TestExpandReplacesVariables(t *testing.T) {
	s := newScenario()
	s.Variables["name"] = "alice"
	s.Variables["count"] = 3

	out, err := s.Expand("user ${name} has ${count} orders")
	require.NoError(t, err)
	assert.Equal(t, "user alice has 3 orders", out)
}

func TestExpandUndefinedVariableFails(t *testing.T) {
	s := newScenario()
	_, err := s.Expand("${missing}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "${missing} not defined")
}

func TestResolveNavigatesNestedValues(t *testing.T) {
	s := newScenario()
	s.Variables["rows"] = []map[string]interface{}{
		{"username": "john_doe", "id": int64(1)},
	}

	v, err := s.Resolve("rows.0.username")
	require.NoError(t, err)
	assert.Equal(t, "john_doe", v)

	_, err = s.Resolve("rows.5")
	require.Error(t, err)

	_, err = s.Resolve("rows.0.nope")
	require.Error(t, err)
}

func TestToStringRendering(t *testing.T) {
	for _, tc := range []struct {
		in   interface{}
		want string
	}{
		{"plain", "plain"},
		{true, "true"},
		{int64(42), "42"},
		{51.98, "51.98"},
		{25.0, "25"},
		{nil, ""},
	} {
		got, err := ToString(tc.in, "v")
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestMustSucceedCarriesStatement(t *testing.T) {
	s := newScenario()
	require.NoError(t, s.MustSucceed())

	s.RecordExec("INSERT INTO t VALUES (1)", 0, assert.AnError)
	err := s.MustSucceed()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSERT INTO t VALUES (1)")
}

func expectedTable(rows ...[]string) *godog.Table {
	table := &godog.Table{}
	for _, cells := range rows {
		row := &messages.PickleTableRow{}
		for _, cell := range cells {
			row.Cells = append(row.Cells, &messages.PickleTableCell{Value: cell})
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func TestRowsMustMatch(t *testing.T) {
	s := newScenario()
	rows := []map[string]interface{}{
		{"username": "john_doe", "email": "john@example.com"},
		{"username": "jane_smith", "email": "jane@example.com"},
	}

	expected := expectedTable(
		[]string{"username", "email"},
		[]string{"john_doe", "john@example.com"},
		[]string{"jane_smith", "jane@example.com"},
	)
	require.NoError(t, s.RowsMustMatch(expected, rows))
}

func TestRowsMustMatchReportsDiff(t *testing.T) {
	s := newScenario()
	rows := []map[string]interface{}{
		{"username": "john_doe"},
	}

	expected := expectedTable(
		[]string{"username"},
		[]string{"someone_else"},
	)
	err := s.RowsMustMatch(expected, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "someone_else")
	assert.Contains(t, err.Error(), "john_doe")
}

func TestRowsMustMatchExpandsVariables(t *testing.T) {
	s := newScenario()
	s.Variables["who"] = "john_doe"
	rows := []map[string]interface{}{{"username": "john_doe"}}

	expected := expectedTable([]string{"username"}, []string{"${who}"})
	require.NoError(t, s.RowsMustMatch(expected, rows))
}

func TestRowsMustMatchRowCountMismatch(t *testing.T) {
	s := newScenario()
	expected := expectedTable([]string{"username"}, []string{"a"}, []string{"b"})
	err := s.RowsMustMatch(expected, []map[string]interface{}{{"username": "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 data row(s), got 1")
}
