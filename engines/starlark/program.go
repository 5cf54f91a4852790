package starlark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/robbyt/go-polygrade/engines/starlark/compiler"
	"github.com/robbyt/go-polygrade/engines/starlark/internal"
	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform"
	starlarkLib "go.starlark.net/starlark"
)

// Program is a compiled Starlark submission.
type Program struct {
	exe         *compiler.Executable
	predeclared starlarkLib.StringDict
	logger      *slog.Logger
}

func newProgram(
	handler slog.Handler,
	exe *compiler.Executable,
	predeclared starlarkLib.StringDict,
) *Program {
	_, logger := helpers.SetupLogger(handler, "starlark", "Program")
	return &Program{
		exe:         exe,
		predeclared: predeclared,
		logger:      logger.With("id", exe.ID()),
	}
}

func (p *Program) ID() string {
	return p.exe.ID()
}

func (p *Program) Source() string {
	return p.exe.Source()
}

// Instantiate runs the top level of the submission on a new thread. The thread is cancelled
// if ctx is done while the top level runs, and counts steps when env.MaxSteps is set.
func (p *Program) Instantiate(ctx context.Context, env platform.Env) (platform.Namespace, error) {
	logger := p.logger.WithGroup("Instantiate")

	stdout := env.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	thread := &starlarkLib.Thread{
		Name: "submission-" + p.exe.ID(),
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.DebugContext(ctx, "print", "message", msg, "thread", thread.Name)
			_, _ = fmt.Fprintln(stdout, msg)
		},
	}
	if env.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(env.MaxSteps)
	}

	if err := ctx.Err(); err != nil {
		return nil, platform.NewScriptError(platform.KindTimeoutError, err.Error(), "", err)
	}
	stop := cancelOnDone(ctx, thread)
	globals, err := p.exe.Program().Init(thread, p.predeclared)
	stop()
	if err != nil {
		logger.DebugContext(ctx, "top level raised", "error", err)
		return nil, toScriptError(err)
	}

	return &namespace{
		thread:   thread,
		globals:  globals,
		bindings: p.exe.BindingOrder(),
	}, nil
}

type namespace struct {
	thread   *starlarkLib.Thread
	globals  starlarkLib.StringDict
	bindings []string
}

func (n *namespace) Submission() (platform.Callable, error) {
	for _, name := range n.bindings {
		if fn, ok := n.globals[name].(*starlarkLib.Function); ok {
			return &callable{thread: n.thread, fn: fn}, nil
		}
	}
	return nil, platform.NoFunctionDefined()
}

type callable struct {
	thread *starlarkLib.Thread
	fn     *starlarkLib.Function
}

func (c *callable) Name() string {
	return c.fn.Name()
}

// Signature counts the positional parameters, excluding *args, **kwargs and keyword-only
// parameters.
func (c *callable) Signature() platform.Signature {
	params := c.fn.NumParams() - c.fn.NumKwonlyParams()
	if c.fn.HasVarargs() {
		params--
	}
	if c.fn.HasKwargs() {
		params--
	}
	return platform.Signature{
		Params:   max(params, 0),
		Variadic: c.fn.HasVarargs(),
	}
}

// Call runs the function on the namespace's thread, cancelling it if ctx is done first.
func (c *callable) Call(ctx context.Context, args []any) (platform.Value, error) {
	tuple, err := internal.ToStarlarkTuple(args)
	if err != nil {
		return nil, platform.NewScriptError(platform.KindConversionError, err.Error(), "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, platform.NewScriptError(platform.KindTimeoutError, err.Error(), "", err)
	}

	stop := cancelOnDone(ctx, c.thread)
	result, err := starlarkLib.Call(c.thread, c.fn, tuple, nil)
	stop()
	if err != nil {
		return nil, toScriptError(err)
	}
	return &value{v: result}, nil
}

// cancelOnDone cancels thread when ctx is done, until the returned stop is called.
func cancelOnDone(ctx context.Context, thread *starlarkLib.Thread) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
}

type value struct {
	v starlarkLib.Value
}

func (v *value) Interface() (any, error) {
	return internal.FromStarlark(v.v)
}

func (v *value) Inspect() string {
	return v.v.String()
}

func (v *value) IsNone() bool {
	return v.v == starlarkLib.None
}

// toScriptError classifies an interpreter error and keeps its backtrace.
func toScriptError(err error) *platform.ScriptError {
	var evalErr *starlarkLib.EvalError
	if errors.As(err, &evalErr) {
		return platform.NewScriptError("", evalErr.Msg, evalErr.Backtrace(), err)
	}
	return platform.NewScriptError("", err.Error(), "", err)
}
