// Package starlark runs submissions written in Starlark, a Python dialect.
package starlark

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polygrade/engines/starlark/compiler"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform"
	starlarkLib "go.starlark.net/starlark"
)

// Engine compiles Starlark submissions. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	compiler    *compiler.Compiler
	predeclared starlarkLib.StringDict
	logHandler  slog.Handler
	logger      *slog.Logger
}

// New creates a Starlark engine. Compiler options can add predeclared globals or change
// the dialect.
func New(handler slog.Handler, opts ...compiler.FunctionalOption) (*Engine, error) {
	handler, logger := helpers.SetupLogger(handler, "starlark", "Engine")

	opts = append([]compiler.FunctionalOption{compiler.WithLogHandler(handler)}, opts...)
	c, err := compiler.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create starlark compiler: %w", err)
	}

	return &Engine{
		compiler:    c,
		predeclared: c.Predeclared(),
		logHandler:  handler,
		logger:      logger,
	}, nil
}

func (e *Engine) String() string {
	return "starlark.Engine"
}

// Type reports types.Starlark.
func (e *Engine) Type() types.Type {
	return types.Starlark
}

// Compile validates the submission. Parse and resolve failures are returned as a
// SyntaxError pointing at the offending position.
func (e *Engine) Compile(source string) (platform.Program, error) {
	exe, err := e.compiler.Compile(source)
	if err != nil {
		msg, pos := compiler.SyntaxErrorDetail(err)
		traceback := ""
		if pos != "" {
			traceback = "  at " + pos
		}
		return nil, platform.NewScriptError(platform.KindSyntaxError, msg, traceback, err)
	}
	return newProgram(e.logHandler, exe, e.predeclared), nil
}
