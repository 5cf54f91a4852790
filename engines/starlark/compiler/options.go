package compiler

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/robbyt/go-polygrade/internal/helpers"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithGlobals adds predeclared values available to every submission, such as harness helpers.
func WithGlobals(globals starlarkLib.StringDict) FunctionalOption {
	return func(c *Compiler) error {
		if c.globals == nil {
			c.globals = make(starlarkLib.StringDict, len(globals))
		}
		for k, v := range globals {
			c.globals[k] = v
		}
		return nil
	}
}

// WithFileOptions overrides the Starlark dialect used to parse submissions.
func WithFileOptions(opts *syntax.FileOptions) FunctionalOption {
	return func(c *Compiler) error {
		if opts == nil {
			return fmt.Errorf("file options cannot be nil")
		}
		c.fileOptions = opts
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the Starlark compiler.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *Compiler) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for the Starlark compiler.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *Compiler) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}

// setupLogger configures the logger and handler based on the current state.
func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
	} else {
		c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "starlark", "Compiler")
	}
}

func (c *Compiler) applyDefaults() {
	if c.logHandler == nil && c.logger == nil {
		c.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	if c.globals == nil {
		c.globals = starlarkLib.StringDict{}
	}
}
