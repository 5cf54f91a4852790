package compiler

import (
	"slices"

	"github.com/robbyt/go-polygrade/internal/helpers"
	starlarkLib "go.starlark.net/starlark"
)

// Executable is a compiled submission ready to be initialized any number of times.
type Executable struct {
	source   string
	id       string
	program  *starlarkLib.Program
	bindings []string
}

func newExecutable(source string, program *starlarkLib.Program, bindings []string) *Executable {
	if program == nil {
		return nil
	}
	return &Executable{
		source:   source,
		id:       helpers.ShortHash(source),
		program:  program,
		bindings: bindings,
	}
}

// ID returns a short hash of the source.
func (e *Executable) ID() string {
	return e.id
}

// Source returns the submission text.
func (e *Executable) Source() string {
	return e.source
}

// Program returns the compiled Starlark program.
func (e *Executable) Program() *starlarkLib.Program {
	return e.program
}

// BindingOrder returns the public top-level names in source order.
func (e *Executable) BindingOrder() []string {
	return slices.Clone(e.bindings)
}
