// Package polygrade grades student submissions written in an embedded scripting language
// against ordered test cases.
//
// A submission defines a function; every test case's input is adapted to that function's
// parameters, the function is called in a fresh namespace, and the return value is
// compared with the expected output:
//
//	res, err := polygrade.ExecuteCode(ctx, "def add(a, b):\n    return a + b\n",
//		[]polygrade.TestCase{{Input: []any{2, 3}, ExpectedOutput: 5}})
package polygrade

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polygrade/engines/extism"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/grading"
	"github.com/robbyt/go-polygrade/options"
	"github.com/robbyt/go-polygrade/platform/catalog"
	"github.com/robbyt/go-polygrade/platform/script/loader"
)

type (
	TestCase        = grading.TestCase
	TestResult      = grading.TestResult
	ExecutionResult = grading.ExecutionResult
	Summary         = grading.Summary
	Grader          = grading.Grader
)

// ErrInterpreterInitialization is the only error ExecuteCode returns for a valid config.
var ErrInterpreterInitialization = grading.ErrInterpreterInitialization

// NewGrader creates a grader for the engine selected with options.WithEngine, Starlark
// by default.
func NewGrader(opts ...options.Option) (*Grader, error) {
	return newGrader(types.Starlark, opts...)
}

// NewStarlarkGrader creates a grader for Starlark submissions.
func NewStarlarkGrader(opts ...options.Option) (*Grader, error) {
	return newGrader(types.Starlark, append(opts, options.WithEngine(types.Starlark))...)
}

// NewRisorGrader creates a grader for Risor submissions.
func NewRisorGrader(opts ...options.Option) (*Grader, error) {
	return newGrader(types.Risor, append(opts, options.WithEngine(types.Risor))...)
}

func newGrader(engineType types.Type, opts ...options.Option) (*Grader, error) {
	cfg := options.DefaultConfig(engineType)
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if err := options.WithDefaults()(cfg); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}
	return grading.NewFromConfig(cfg)
}

// ExecuteCode grades source against cases with a one-off grader.
func ExecuteCode(
	ctx context.Context,
	source string,
	cases []TestCase,
	opts ...options.Option,
) (*ExecutionResult, error) {
	g, err := NewGrader(opts...)
	if err != nil {
		return nil, err
	}
	return g.ExecuteCode(ctx, source, cases)
}

// LoadCatalog reads a JSON or YAML problem catalog from a path, URL, inline document,
// byte slice or loader.Loader.
func LoadCatalog(input any) (*catalog.DocumentProvider, error) {
	l, err := loader.InferLoader(input)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog loader: %w", err)
	}
	return catalog.NewDocumentProvider(l), nil
}

// LoadChecker reads a WASM checker plugin from a path, URL, byte slice or loader.Loader.
// The module is compiled on its first check.
func LoadChecker(
	handler slog.Handler,
	input any,
	opts ...extism.FunctionalOption,
) (*extism.Checker, error) {
	l, err := loader.InferLoader(input)
	if err != nil {
		return nil, fmt.Errorf("failed to create checker loader: %w", err)
	}
	wasm, err := loader.ReadAll(l)
	if err != nil {
		return nil, fmt.Errorf("failed to read checker from %s: %w", l.GetSourceURL(), err)
	}
	return extism.NewChecker(handler, wasm, opts...)
}
