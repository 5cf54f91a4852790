package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	risorLib "github.com/risor-io/risor"
	"github.com/robbyt/go-polygrade/engines/risor/compiler/internal/compile"
)

var (
	ErrCompileFailed = compile.ErrCompileFailed
	ErrContentNil    = compile.ErrContentNil
)

// deniedByDefault are default globals that reach outside the process.
var deniedByDefault = []string{"exec", "fetch", "http", "net", "ssh", "sql", "aws", "k8s", "vault"}

// Compiler turns submission source into an Executable.
type Compiler struct {
	extraGlobals map[string]any
	denied       map[string]struct{}
	globals      map[string]any
	logHandler   slog.Handler
	logger       *slog.Logger
}

// New creates a new Risor Compiler instance with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}
	c.applyDefaults()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	c.setupLogger()
	c.globals = c.buildGlobals()
	return c, nil
}

func (c *Compiler) buildGlobals() map[string]any {
	globals := risorLib.NewConfig().Globals()
	for name := range c.denied {
		delete(globals, name)
	}
	maps.Copy(globals, c.extraGlobals)
	return globals
}

func (c *Compiler) String() string {
	return "risor.Compiler"
}

// Globals returns a copy of the values predeclared for submissions.
func (c *Compiler) Globals() map[string]any {
	return maps.Clone(c.globals)
}

// GlobalNames returns the sorted predeclared names.
func (c *Compiler) GlobalNames() []string {
	return slices.Sorted(maps.Keys(c.globals))
}

// Compile parses and compiles a submission.
func (c *Compiler) Compile(source string) (*Executable, error) {
	logger := c.logger.WithGroup("Compile")

	code, err := compile.Compile(&source, c.GlobalNames())
	if err != nil {
		logger.Debug("compilation failed", "error", err)
		return nil, err
	}

	exe := newExecutable(source, code)
	logger.Debug("compilation complete", "id", exe.ID())
	return exe, nil
}

// CompileErrorDetail returns the message and source excerpt of a compile failure.
func CompileErrorDetail(err error) (message string, excerpt string) {
	var compileErr *compile.Error
	if errors.As(err, &compileErr) {
		return compileErr.Msg, compileErr.Excerpt
	}
	return err.Error(), ""
}
