package features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeature = `Feature: Sample
  Background:
    Given the database is initialized

  Scenario: First thing
    When I select all records from "test_users"
    Then the query should return 0 records

  @slow
  Scenario: Second thing
    When I select all records from "test_users"
    Then the query should return 0 records
`

func writeFeature(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDiscoverSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "b.feature", sampleFeature)
	writeFeature(t, dir, "a.feature", sampleFeature)
	writeFeature(t, dir, "notes.txt", "not a feature")

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "a.feature", filepath.Base(paths[0]))
	assert.Equal(t, "b.feature", filepath.Base(paths[1]))
}

func TestDiscoverEmptyDirIsAnError(t *testing.T) {
	_, err := Discover(t.TempDir())
	require.Error(t, err)
}

func TestScenariosFlattensFeatures(t *testing.T) {
	dir := t.TempDir()
	path := writeFeature(t, dir, "sample.feature", sampleFeature)

	scenarios, err := Scenarios([]string{path})
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "Sample", scenarios[0].Feature)
	assert.Equal(t, "First thing", scenarios[0].Name)
	assert.Equal(t, path, scenarios[0].Path)
	assert.Positive(t, scenarios[0].Line)

	assert.Equal(t, "Second thing", scenarios[1].Name)
	assert.Equal(t, []string{"@slow"}, scenarios[1].Tags)
	assert.Greater(t, scenarios[1].Line, scenarios[0].Line)
}

func TestScenarioLocation(t *testing.T) {
	sc := Scenario{Path: "features/x.feature", Line: 12}
	assert.Equal(t, "features/x.feature:12", sc.Location())
}

func TestParseRejectsMalformedGherkin(t *testing.T) {
	dir := t.TempDir()
	// The docstring is never closed, which the parser reports at EOF.
	path := writeFeature(t, dir, "broken.feature",
		"Feature: Broken\n  Scenario: Incomplete\n    Given a step\n      \"\"\"\n      unterminated docstring\n")

	_, err := Parse(path)
	require.Error(t, err)
}

func TestScenariosIgnoresFeaturelessFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFeature(t, dir, "empty.feature", "# only a comment\n")

	doc, err := Parse(path)
	require.NoError(t, err)
	assert.Nil(t, doc.Feature)

	scenarios, err := Scenarios([]string{path})
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := writeFeature(t, dir, "sample.feature", sampleFeature)
	scenarios, err := Scenarios([]string{path})
	require.NoError(t, err)

	matched := Match(scenarios, "FIRST")
	require.Len(t, matched, 1)
	assert.Equal(t, "First thing", matched[0].Name)

	assert.Empty(t, Match(scenarios, "missing"))
}
