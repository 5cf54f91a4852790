package grading

import (
	"time"

	"github.com/robbyt/go-polygrade/platform"
)

// TestCase is one (input, expected output) pair, see platform.TestCase.
type TestCase = platform.TestCase

// TestResult is the graded outcome of a single TestCase.
type TestResult struct {
	Input    any           `json:"input"`
	Expected any           `json:"expected"`
	Actual   any           `json:"actual"`
	Passed   bool          `json:"passed"`
	Error    string        `json:"error,omitempty"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary counts passed and failed test cases.
type Summary struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// AllPassed reports whether every test case passed. An empty run never passes.
func (s Summary) AllPassed() bool {
	return s.Total > 0 && s.Passed == s.Total
}

// ExecutionResult is the outcome of one run. Results[i] corresponds to the i-th TestCase.
type ExecutionResult struct {
	RunID   string       `json:"run_id"`
	Results []TestResult `json:"results"`
	Summary Summary      `json:"summary"`
}
