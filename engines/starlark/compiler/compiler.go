package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/robbyt/go-polygrade/engines/starlark/compiler/internal/compile"
	"github.com/robbyt/go-polygrade/engines/starlark/internal"
	"go.starlark.net/resolve"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Filename is the name compiled submissions are given in tracebacks.
const Filename = "solution.star"

var (
	ErrCompileFailed = compile.ErrCompileFailed
	ErrContentNil    = compile.ErrContentNil
)

// Compiler turns submission source into an Executable.
type Compiler struct {
	globals     starlarkLib.StringDict
	fileOptions *syntax.FileOptions
	logHandler  slog.Handler
	logger      *slog.Logger
}

// New creates a new Starlark Compiler instance with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}
	c.applyDefaults()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	c.setupLogger()
	return c, nil
}

func (c *Compiler) String() string {
	return "starlark.Compiler"
}

// Predeclared returns the names and values visible to a submission at run time.
func (c *Compiler) Predeclared() starlarkLib.StringDict {
	predeclared := internal.StarlarkModules()
	maps.Copy(predeclared, c.globals)
	return predeclared
}

// Compile parses and compiles a submission.
func (c *Compiler) Compile(source string) (*Executable, error) {
	logger := c.logger.WithGroup("Compile")

	fileOpts := c.fileOptions
	if fileOpts == nil {
		fileOpts = compile.FileOptions()
	}

	f, prog, err := compile.Compile(Filename, []byte(source), fileOpts, c.globals)
	if err != nil {
		logger.Debug("compilation failed", "error", err)
		return nil, err
	}

	exe := newExecutable(source, prog, compile.BindingOrder(f))
	logger.Debug("compilation complete", "id", exe.ID(), "bindings", exe.BindingOrder())
	return exe, nil
}

// SyntaxErrorDetail extracts the position and message of a parse or resolve failure.
func SyntaxErrorDetail(err error) (message string, position string) {
	var scanErr syntax.Error
	if errors.As(err, &scanErr) {
		return scanErr.Msg, scanErr.Pos.String()
	}
	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		return resolveErrs[0].Msg, resolveErrs[0].Pos.String()
	}
	return err.Error(), ""
}
