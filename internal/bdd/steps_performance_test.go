package bdd

import (
	"testing"
	"time"

	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPerformanceSteps() *performanceSteps {
	return &performanceSteps{s: &cucumber.TestScenario{
		Suite:     &cucumber.TestSuite{},
		Variables: map[string]interface{}{},
	}}
}

func TestOperationTimingRequiresARecordedOperation(t *testing.T) {
	p := newPerformanceSteps()

	// Without a preceding bulk load or search there is nothing to time.
	err := p.theOperationShouldCompleteWithin(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no timed operation")
}

func TestOperationTimingChecksTheRecordedDuration(t *testing.T) {
	p := newPerformanceSteps()
	p.bulkDuration = 20 * time.Millisecond
	require.NoError(t, p.theOperationShouldCompleteWithin(5))

	p.bulkDuration = 6 * time.Second
	require.Error(t, p.theOperationShouldCompleteWithin(5))
}

func TestOperationTimingFallsBackToSearchDuration(t *testing.T) {
	p := newPerformanceSteps()
	p.searchDuration = 20 * time.Millisecond
	require.NoError(t, p.theOperationShouldCompleteWithin(5))

	p.searchDuration = 6 * time.Second
	require.Error(t, p.theOperationShouldCompleteWithin(5))
}
