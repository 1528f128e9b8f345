// Package features discovers and parses the Gherkin feature files the
// orchestrator runs, lists and validates.
package features

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

// Scenario is one runnable scenario inside a feature file. Path and Line
// combine into the path:line form godog accepts for targeted runs.
type Scenario struct {
	Feature string
	Name    string
	Path    string
	Line    int64
	Tags    []string
}

// Location returns the path:line reference for the scenario.
func (s Scenario) Location() string {
	return fmt.Sprintf("%s:%d", s.Path, s.Line)
}

// Discover returns the feature files under dir, sorted by name.
func Discover(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.feature"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no feature files found in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Parse reads and parses a single feature file.
func Parse(path string) (*messages.GherkinDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := gherkin.ParseGherkinDocument(f, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Scenarios parses the given feature files and flattens every scenario they
// declare, including scenarios nested under rules.
func Scenarios(paths []string) ([]Scenario, error) {
	var out []Scenario
	for _, path := range paths {
		doc, err := Parse(path)
		if err != nil {
			return nil, err
		}
		if doc.Feature == nil {
			continue
		}
		for _, child := range doc.Feature.Children {
			out = append(out, fromChild(doc.Feature.Name, path, child)...)
		}
	}
	return out, nil
}

func fromChild(feature, path string, child *messages.FeatureChild) []Scenario {
	if child.Scenario != nil {
		return []Scenario{fromScenario(feature, path, child.Scenario)}
	}
	if child.Rule != nil {
		var out []Scenario
		for _, rc := range child.Rule.Children {
			if rc.Scenario != nil {
				out = append(out, fromScenario(feature, path, rc.Scenario))
			}
		}
		return out
	}
	return nil
}

func fromScenario(feature, path string, sc *messages.Scenario) Scenario {
	s := Scenario{
		Feature: feature,
		Name:    sc.Name,
		Path:    path,
		Line:    sc.Location.Line,
	}
	for _, tag := range sc.Tags {
		s.Tags = append(s.Tags, tag.Name)
	}
	return s
}

// Match filters scenarios whose name contains the query, case-insensitively.
func Match(scenarios []Scenario, query string) []Scenario {
	q := strings.ToLower(query)
	var out []Scenario
	for _, sc := range scenarios {
		if strings.Contains(strings.ToLower(sc.Name), q) {
			out = append(out, sc)
		}
	}
	return out
}
