package grading

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-polygrade/platform"
	"github.com/robbyt/go-polygrade/platform/host"
)

var (
	// ErrInterpreterInitialization is the only error that aborts a run.
	ErrInterpreterInitialization = host.ErrInterpreterInitialization

	ErrNoFunctionDefined = platform.ErrNoFunctionDefined
	ErrArityMismatch     = errors.New("arity mismatch")
)

// ArityMismatchError reports a test case input that cannot be adapted to the submission's
// parameters.
type ArityMismatchError struct {
	Function string
	Expected int
	Got      int
}

func (e *ArityMismatchError) Error() string {
	noun := "arguments"
	if e.Expected == 1 {
		noun = "argument"
	}
	return fmt.Sprintf("%s expects %d %s but got %d", e.Function, e.Expected, noun, e.Got)
}

func (e *ArityMismatchError) Unwrap() error {
	return ErrArityMismatch
}
