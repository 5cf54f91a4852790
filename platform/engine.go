package platform

import (
	"context"
	"io"

	"github.com/robbyt/go-polygrade/engines/types"
)

// Engine is a ready-to-use embedded interpreter. One Engine is shared by every grading
// run in the process, so implementations must keep per-execution state out of the Engine
// itself and inside the Namespace created for each test case.
type Engine interface {
	// Compile validates the submission source and prepares it for repeated execution.
	// A compile failure is returned as a *ScriptError with Kind KindSyntaxError.
	Compile(source string) (Program, error)

	// Type reports which engine this is.
	Type() types.Type
}

// Program is a compiled submission. It can be instantiated any number of times, each
// time into a fresh namespace, following the "compile once, run many times" pattern.
type Program interface {
	// ID is a short, stable identifier derived from the source text.
	ID() string

	// Source returns the original submission text.
	Source() string

	// Instantiate executes the program's top-level statements in a new namespace.
	// Errors raised by the top level are returned as *ScriptError.
	Instantiate(ctx context.Context, env Env) (Namespace, error)
}

// Env holds the per-execution knobs passed into Program.Instantiate.
type Env struct {
	// Stdout receives anything the submission prints. Nil discards output.
	Stdout io.Writer

	// MaxSteps bounds the number of interpreter steps, for engines that count them.
	// Zero means unlimited.
	MaxSteps uint64
}

// Namespace is the set of globals bound by one execution of a Program.
type Namespace interface {
	// Submission returns the first callable bound at top level, in source order,
	// skipping names that start with an underscore. It fails with ErrNoFunctionDefined.
	Submission() (Callable, error)
}

// Callable is a user-defined function living inside a Namespace.
type Callable interface {
	Name() string

	// Signature reports the parameters the function declares.
	Signature() Signature

	// Call invokes the function with positional arguments given as host values.
	// Runtime faults in user code are returned as *ScriptError.
	Call(ctx context.Context, args []any) (Value, error)
}

// Signature describes the positional parameters of a Callable.
type Signature struct {
	// Params is the number of declared positional parameters.
	Params int

	// Variadic is true when the function also accepts extra positional arguments.
	Variadic bool
}

// Value is a raw, engine-native return value.
type Value interface {
	// Interface converts the value into a host value: nil, bool, int64, *big.Int,
	// float64, string, []any or map[string]any.
	Interface() (any, error)

	// Inspect returns the engine's own representation of the value.
	Inspect() string

	// IsNone reports whether the value is the engine's "no value" sentinel.
	IsNone() bool
}

// Checker decides whether an actual value satisfies an expected value. It replaces the
// built-in equality policy when a problem ships its own checker.
type Checker interface {
	Check(ctx context.Context, expected, actual any) (bool, error)
}
