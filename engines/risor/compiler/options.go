package compiler

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/robbyt/go-polygrade/internal/helpers"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithGlobal adds a predeclared value available to every submission.
func WithGlobal(name string, value any) FunctionalOption {
	return func(c *Compiler) error {
		if name == "" {
			return fmt.Errorf("global name cannot be empty")
		}
		c.extraGlobals[name] = value
		return nil
	}
}

// WithoutGlobal hides a default builtin or module from submissions.
func WithoutGlobal(name string) FunctionalOption {
	return func(c *Compiler) error {
		c.denied[name] = struct{}{}
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the Risor compiler.
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

// WithLogger creates an option to set a specific logger for the Risor compiler.
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

func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
	} else {
		c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "risor", "Compiler")
	}
}

func (c *Compiler) applyDefaults() {
	if c.logHandler == nil && c.logger == nil {
		c.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	c.extraGlobals = make(map[string]any)
	c.denied = make(map[string]struct{}, len(deniedByDefault))
	for _, name := range deniedByDefault {
		c.denied[name] = struct{}{}
	}
}
