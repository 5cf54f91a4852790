package grading

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.observeRun("starlark")
	m.observeTestCase("starlark", TestResult{Passed: true, Duration: time.Millisecond})
	m.observeTestCase("starlark", TestResult{Duration: time.Millisecond})
	m.observeTestCase("starlark", TestResult{Error: "TypeError: nope"})
	m.observeHostInit("starlark", nil)
	m.observeHostInit("risor", errors.New("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("starlark")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.testCases.WithLabelValues("starlark", outcomePassed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.testCases.WithLabelValues("starlark", outcomeFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.testCases.WithLabelValues("starlark", outcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.hostInit.WithLabelValues("starlark", resultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.hostInit.WithLabelValues("risor", resultFailure)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	names := []string{
		"polygrade_runs_total",
		"polygrade_test_cases_total",
		"polygrade_test_case_duration_seconds",
		"polygrade_host_init_total",
	}
	count, err := testutil.GatherAndCount(reg, names...)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestMetrics_SharedRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.observeRun("risor")
	second.observeRun("risor")
	assert.InDelta(t, 2, testutil.ToFloat64(first.runs.WithLabelValues("risor")), 0)
	assert.Same(t, first.runs, second.runs)
}

func TestMetrics_Conflict(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "polygrade_runs_total",
		Help: "conflicting collector",
	})))

	_, err := NewMetrics(reg)
	require.Error(t, err)
}
