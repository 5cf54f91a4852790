package grading

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomePassed = "passed"
	outcomeFailed = "failed"
	outcomeError  = "error"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the grading collectors.
type Metrics struct {
	runs      *prometheus.CounterVec
	testCases *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	hostInit  *prometheus.CounterVec
}

// NewMetrics registers the grading collectors on reg. Collectors already registered by
// another grader sharing reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polygrade",
			Name:      "runs_total",
			Help:      "Number of grading runs started",
		}, []string{"engine"}),
		testCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polygrade",
			Name:      "test_cases_total",
			Help:      "Number of graded test cases by outcome",
		}, []string{"engine", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "polygrade",
			Name:      "test_case_duration_seconds",
			Help:      "Wall time spent running a single test case",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		hostInit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polygrade",
			Name:      "host_init_total",
			Help:      "Interpreter initialization attempts observed by graders",
		}, []string{"engine", "result"}),
	}

	var err error
	if m.runs, err = register(reg, m.runs); err != nil {
		return nil, err
	}
	if m.testCases, err = register(reg, m.testCases); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.hostInit, err = register(reg, m.hostInit); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeRun(engine string) {
	m.runs.WithLabelValues(engine).Inc()
}

func (m *Metrics) observeTestCase(engine string, r TestResult) {
	outcome := outcomeFailed
	switch {
	case r.Passed:
		outcome = outcomePassed
	case r.Error != "":
		outcome = outcomeError
	}
	m.testCases.WithLabelValues(engine, outcome).Inc()
	m.duration.WithLabelValues(engine).Observe(r.Duration.Seconds())
}

func (m *Metrics) observeHostInit(engine string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.hostInit.WithLabelValues(engine, result).Inc()
}
