// Package risor runs submissions written in Risor.
package risor

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polygrade/engines/risor/compiler"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform"
)

// Engine compiles Risor submissions. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	compiler   *compiler.Compiler
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Risor engine. By default submissions see the standard Risor builtins, minus
// the modules that reach the network or spawn processes.
func New(handler slog.Handler, opts ...compiler.FunctionalOption) (*Engine, error) {
	handler, logger := helpers.SetupLogger(handler, "risor", "Engine")

	opts = append([]compiler.FunctionalOption{compiler.WithLogHandler(handler)}, opts...)
	c, err := compiler.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create risor compiler: %w", err)
	}

	return &Engine{
		compiler:   c,
		logHandler: handler,
		logger:     logger,
	}, nil
}

func (e *Engine) String() string {
	return "risor.Engine"
}

// Type reports types.Risor.
func (e *Engine) Type() types.Type {
	return types.Risor
}

// Compile validates the submission, returning parse and compile failures as a SyntaxError.
func (e *Engine) Compile(source string) (platform.Program, error) {
	exe, err := e.compiler.Compile(source)
	if err != nil {
		msg, excerpt := compiler.CompileErrorDetail(err)
		return nil, platform.NewScriptError(platform.KindSyntaxError, msg, excerpt, err)
	}
	return newProgram(e.logHandler, exe, e.compiler.Globals(), e.compiler.GlobalNames()), nil
}
