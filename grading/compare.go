package grading

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform"
	"github.com/robbyt/go-polygrade/platform/values"
)

// Checker replaces built-in equality, see platform.Checker.
type Checker = platform.Checker

// Comparator grades Outcomes. With a nil checker it uses CompareValues.
type Comparator struct {
	checker Checker
	logger  *slog.Logger
}

// NewComparator creates a Comparator. checker may be nil.
func NewComparator(handler slog.Handler, checker Checker) *Comparator {
	_, logger := helpers.SetupLogger(handler, "grading", "Comparator")
	return &Comparator{checker: checker, logger: logger}
}

// Compare grades a single outcome with built-in equality.
func Compare(tc TestCase, out Outcome) TestResult {
	return (&Comparator{logger: slog.New(slog.DiscardHandler)}).Compare(context.Background(), tc, out)
}

// Compare grades out against tc. It never fails: anything that cannot be compared is a
// failed test case.
func (c *Comparator) Compare(ctx context.Context, tc TestCase, out Outcome) TestResult {
	result := TestResult{
		Input:    tc.Input,
		Expected: tc.ExpectedOutput,
		Output:   out.Output,
		Duration: out.Duration,
	}

	if out.Err != nil {
		result.Error = describe(out.Err)
		return result
	}

	actual, err := convert(out.Value)
	if err != nil {
		result.Error = platform.NewScriptError(platform.KindConversionError, err.Error(), "", err).Error()
		return result
	}
	result.Actual = actual

	if c.checker == nil {
		result.Passed = CompareValues(tc.ExpectedOutput, actual)
		return result
	}

	passed, err := c.checker.Check(ctx, tc.ExpectedOutput, actual)
	if err != nil {
		c.logger.WarnContext(ctx, "checker failed", "error", err)
		result.Error = platform.NewScriptError(
			platform.KindInternalError, "checker failed: "+err.Error(), "", err,
		).Error()
		return result
	}
	result.Passed = passed
	return result
}

func convert(v platform.Value) (any, error) {
	if v == nil || v.IsNone() {
		return nil, nil
	}
	return v.Interface()
}

func describe(err error) string {
	var se *platform.ScriptError
	if errors.As(err, &se) {
		return se.Detail()
	}
	return err.Error()
}

// CompareValues applies the built-in equality policy, in order:
//  1. both nil pass
//  2. two sequences pass when their canonical forms match
//  3. two mappings pass when their canonical forms match, regardless of key order
//  4. anything else must be strictly equal: same kind and value, with every numeric
//     type treated as one "number" kind
func CompareValues(expected, actual any) bool {
	exp, err := values.Normalize(expected)
	if err != nil {
		return false
	}
	act, err := values.Normalize(actual)
	if err != nil {
		return false
	}

	if exp == nil || act == nil {
		return exp == nil && act == nil
	}

	_, expSeq := values.AsSequence(exp)
	_, actSeq := values.AsSequence(act)
	if expSeq || actSeq {
		return expSeq && actSeq && canonicalEqual(exp, act)
	}

	expMap, actMap := values.IsMapping(exp), values.IsMapping(act)
	if expMap || actMap {
		return expMap && actMap && canonicalEqual(exp, act)
	}

	return values.StrictEqual(exp, act)
}

func canonicalEqual(a, b any) bool {
	ca, err := values.Canonical(a)
	if err != nil {
		return false
	}
	cb, err := values.Canonical(b)
	if err != nil {
		return false
	}
	return ca == cb
}

// Summarize counts the results.
func Summarize(results []TestResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		}
	}
	s.Failed = s.Total - s.Passed
	return s
}
