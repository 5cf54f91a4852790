package grading

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform"
)

// Outcome is what running one test case produced: either a raw engine value or an error.
type Outcome struct {
	Value    platform.Value
	Err      error
	Output   string
	Duration time.Duration
}

// Runner executes a compiled submission against a single input. It never panics and
// never returns an error; every fault lands in Outcome.Err as a *platform.ScriptError.
type Runner struct {
	timeout  time.Duration
	maxSteps uint64
	logger   *slog.Logger
}

// NewRunner creates a Runner. A zero timeout or maxSteps disables that limit.
func NewRunner(handler slog.Handler, timeout time.Duration, maxSteps uint64) *Runner {
	_, logger := helpers.SetupLogger(handler, "grading", "Runner")
	return &Runner{
		timeout:  timeout,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

// Run instantiates program in a fresh namespace, adapts input to the submission's
// parameters and calls it.
func (r *Runner) Run(ctx context.Context, program platform.Program, input any) (out Outcome) {
	logger := r.logger.WithGroup("Run").With("programID", program.ID())

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "recovered from panic in engine", "panic", rec)
			out.Value = nil
			out.Err = platform.NewScriptError(
				platform.KindInternalError,
				fmt.Sprintf("engine panicked: %v", rec),
				"",
				nil,
			)
		}
		out.Output = stdout.String()
		out.Duration = time.Since(start)
	}()

	value, err := r.call(callCtx, program, input, &stdout)
	if err != nil {
		out.Err = r.toScriptError(callCtx, err)
		logger.DebugContext(ctx, "test case raised", "error", out.Err)
		return out
	}
	out.Value = value
	return out
}

func (r *Runner) call(
	ctx context.Context,
	program platform.Program,
	input any,
	stdout *bytes.Buffer,
) (platform.Value, error) {
	ns, err := program.Instantiate(ctx, platform.Env{Stdout: stdout, MaxSteps: r.maxSteps})
	if err != nil {
		return nil, err
	}

	fn, err := ns.Submission()
	if err != nil {
		return nil, err
	}

	args, err := AdaptArguments(fn.Name(), fn.Signature(), input)
	if err != nil {
		return nil, err
	}
	return fn.Call(ctx, args)
}

func (r *Runner) toScriptError(ctx context.Context, err error) *platform.ScriptError {
	var se *platform.ScriptError
	var arity *ArityMismatchError
	switch {
	case errors.As(err, &se):
	case errors.As(err, &arity):
		se = platform.NewScriptError(platform.KindArityMismatch, arity.Error(), "", err)
	case errors.Is(err, ErrNoFunctionDefined):
		se = platform.NoFunctionDefined()
	default:
		se = platform.NewScriptError("", err.Error(), "", err)
	}

	if ctx.Err() != nil {
		timeout := *se
		timeout.Kind = platform.KindTimeoutError
		timeout.Message = "test case was cancelled"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.timeout > 0 {
			timeout.Message = fmt.Sprintf("test case exceeded its time limit of %s", r.timeout)
		}
		return &timeout
	}
	return se
}
