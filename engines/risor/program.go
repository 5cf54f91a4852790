package risor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	risorErrors "github.com/risor-io/risor/errz"
	"github.com/risor-io/risor/object"
	ros "github.com/risor-io/risor/os"
	"github.com/risor-io/risor/vm"
	"github.com/robbyt/go-polygrade/engines/risor/compiler"
	"github.com/robbyt/go-polygrade/engines/risor/internal"
	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform"
)

// Program is a compiled Risor submission.
type Program struct {
	exe      *compiler.Executable
	globals  map[string]any
	builtins map[string]struct{}
	logger   *slog.Logger
}

func newProgram(
	handler slog.Handler,
	exe *compiler.Executable,
	globals map[string]any,
	globalNames []string,
) *Program {
	_, logger := helpers.SetupLogger(handler, "risor", "Program")

	builtins := make(map[string]struct{}, len(globalNames))
	for _, name := range globalNames {
		builtins[name] = struct{}{}
	}

	return &Program{
		exe:      exe,
		globals:  globals,
		builtins: builtins,
		logger:   logger.With("id", exe.ID()),
	}
}

func (p *Program) ID() string {
	return p.exe.ID()
}

func (p *Program) Source() string {
	return p.exe.Source()
}

// Instantiate runs the top level of the submission in a new VM backed by a virtual OS, so the
// script cannot touch the host filesystem and its stdout is captured. Risor does not count
// steps; only ctx bounds execution.
func (p *Program) Instantiate(ctx context.Context, env platform.Env) (platform.Namespace, error) {
	logger := p.logger.WithGroup("Instantiate")

	if err := ctx.Err(); err != nil {
		return nil, platform.NewScriptError(platform.KindTimeoutError, err.Error(), "", err)
	}

	out := env.Stdout
	if out == nil {
		out = io.Discard
	}

	stdout := ros.NewBufferFile([]byte{})
	vos := ros.NewVirtualOS(ctx, ros.WithStdout(stdout))
	machine := vm.New(p.exe.Code(), vm.WithGlobals(p.globals))

	ns := &namespace{
		machine:  machine,
		vos:      vos,
		stdout:   stdout,
		out:      out,
		builtins: p.builtins,
		logger:   logger,
	}

	err := machine.Run(ros.WithOS(ctx, vos))
	ns.flush(ctx)
	if err != nil {
		logger.DebugContext(ctx, "top level raised", "error", err)
		return nil, toScriptError(err)
	}
	return ns, nil
}

type namespace struct {
	machine  *vm.VirtualMachine
	vos      ros.OS
	stdout   *ros.BufferFile
	flushed  int
	out      io.Writer
	builtins map[string]struct{}
	logger   *slog.Logger
}

// flush copies output written since the last flush to the caller's writer.
func (n *namespace) flush(ctx context.Context) {
	written := n.stdout.Bytes()
	if len(written) <= n.flushed {
		return
	}
	chunk := written[n.flushed:]
	n.flushed = len(written)
	n.logger.DebugContext(ctx, "print", "message", strings.TrimRight(string(chunk), "\n"))
	_, _ = n.out.Write(chunk)
}

func (n *namespace) Submission() (platform.Callable, error) {
	for _, name := range n.machine.GlobalNames() {
		if _, builtin := n.builtins[name]; builtin || strings.HasPrefix(name, "_") {
			continue
		}
		obj, err := n.machine.Get(name)
		if err != nil {
			continue
		}
		if fn, ok := obj.(*object.Function); ok {
			return &callable{ns: n, fn: fn}, nil
		}
	}
	return nil, platform.NoFunctionDefined()
}

type callable struct {
	ns *namespace
	fn *object.Function
}

func (c *callable) Name() string {
	return c.fn.Name()
}

func (c *callable) Signature() platform.Signature {
	return platform.Signature{Params: len(c.fn.Parameters())}
}

func (c *callable) Call(ctx context.Context, args []any) (platform.Value, error) {
	objs, err := internal.ToRisorArgs(args)
	if err != nil {
		return nil, platform.NewScriptError(platform.KindConversionError, err.Error(), "", err)
	}

	result, err := c.ns.machine.Call(ros.WithOS(ctx, c.ns.vos), c.fn, objs)
	c.ns.flush(ctx)
	if err != nil {
		return nil, toScriptError(err)
	}
	if errObj, ok := result.(*object.Error); ok {
		return nil, toScriptError(errObj.Value())
	}
	return &value{obj: result}, nil
}

type value struct {
	obj object.Object
}

func (v *value) Interface() (any, error) {
	return internal.FromRisor(v.obj)
}

func (v *value) Inspect() string {
	if v.obj == nil {
		return object.Nil.Inspect()
	}
	return v.obj.Inspect()
}

func (v *value) IsNone() bool {
	return v.obj == nil || v.obj == object.Nil
}

// toScriptError classifies a VM error, keeping the friendly source excerpt as the traceback.
func toScriptError(err error) *platform.ScriptError {
	traceback := ""
	var friendlyErr risorErrors.FriendlyError
	if errors.As(err, &friendlyErr) {
		traceback = friendlyErr.FriendlyErrorMessage()
	}
	return platform.NewScriptError("", err.Error(), traceback, err)
}
