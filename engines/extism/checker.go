// Package extism runs problem-supplied WASM checker plugins through the Extism SDK.
//
// A checker exports a function (default "check") that receives
//
//	{"expected": <value>, "actual": <value>}
//
// and returns
//
//	{"passed": <bool>, "message": <string>}
package extism

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polygrade/engines/extism/adapters"
	"github.com/robbyt/go-polygrade/engines/extism/internal/compile"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/platform/host"
	"github.com/robbyt/go-polygrade/platform/values"
	"github.com/tetratelabs/wazero"
)

// DefaultEntryPoint is the exported function called for every comparison.
const DefaultEntryPoint = "check"

var (
	ErrCompileFailed      = compile.ErrCompileFailed
	ErrContentNil         = compile.ErrContentNil
	ErrEntryPointNotFound = errors.New("entry point not found in plugin")
	ErrCheckFailed        = errors.New("checker plugin failed")
)

type checkRequest struct {
	Expected any `json:"expected"`
	Actual   any `json:"actual"`
}

type checkResponse struct {
	Passed  *bool  `json:"passed"`
	Message string `json:"message"`
}

// PluginFactory compiles the plugin on first use.
type PluginFactory func(ctx context.Context) (adapters.CompiledPlugin, error)

// Checker compares values by calling into a WASM plugin. The plugin is compiled once, on
// the first check, and each check runs in its own short-lived instance.
type Checker struct {
	entryPoint string
	settings   *compile.Settings
	plugin     *host.Host[adapters.CompiledPlugin]
	logger     *slog.Logger
}

// FunctionalOption configures a Checker.
type FunctionalOption func(*Checker) error

// WithEntryPoint changes the exported function name.
func WithEntryPoint(name string) FunctionalOption {
	return func(c *Checker) error {
		if name == "" {
			return fmt.Errorf("entry point cannot be empty")
		}
		c.entryPoint = name
		return nil
	}
}

// WithRuntimeConfig sets the wazero runtime used to compile the plugin.
func WithRuntimeConfig(cfg wazero.RuntimeConfig) FunctionalOption {
	return func(c *Checker) error {
		if cfg == nil {
			return fmt.Errorf("runtime config cannot be nil")
		}
		c.settings.RuntimeConfig = cfg
		return nil
	}
}

// WithoutWASI compiles the plugin without WASI imports.
func WithoutWASI() FunctionalOption {
	return func(c *Checker) error {
		c.settings.EnableWASI = false
		return nil
	}
}

// NewChecker creates a Checker for the given WASM module.
func NewChecker(handler slog.Handler, wasm []byte, opts ...FunctionalOption) (*Checker, error) {
	if len(wasm) == 0 {
		return nil, ErrContentNil
	}

	var c *Checker
	factory := func(ctx context.Context) (adapters.CompiledPlugin, error) {
		return compile.CompileBytes(ctx, wasm, c.settings)
	}
	c, err := newChecker(handler, factory, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newChecker(
	handler slog.Handler,
	factory PluginFactory,
	opts ...FunctionalOption,
) (*Checker, error) {
	handler, logger := helpers.SetupLogger(handler, "extism", "Checker")

	c := &Checker{
		entryPoint: DefaultEntryPoint,
		settings:   compile.DefaultSettings(),
		logger:     logger,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying checker option: %w", err)
		}
	}

	c.plugin = host.New(handler, types.Extism.String(), host.Factory[adapters.CompiledPlugin](factory))
	return c, nil
}

func (c *Checker) String() string {
	return "extism.Checker"
}

// Check reports whether actual satisfies expected according to the plugin.
func (c *Checker) Check(ctx context.Context, expected, actual any) (bool, error) {
	logger := c.logger.WithGroup("Check")

	plugin, err := c.plugin.EnsureReady(ctx)
	if err != nil {
		return false, err
	}

	input, err := encodeRequest(expected, actual)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}

	instance, err := plugin.Instance(ctx, adapters.NewPluginInstanceConfig())
	if err != nil {
		return false, fmt.Errorf("%w: failed to create plugin instance: %w", ErrCheckFailed, err)
	}
	defer func() {
		if err := instance.Close(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close plugin instance", "error", err)
		}
	}()

	if !instance.FunctionExists(c.entryPoint) {
		return false, fmt.Errorf("%w: %s", ErrEntryPointNotFound, c.entryPoint)
	}

	exit, output, err := instance.CallWithContext(ctx, c.entryPoint, input)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if exit != 0 {
		return false, fmt.Errorf("%w: exit code %d", ErrCheckFailed, exit)
	}

	var resp checkResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return false, fmt.Errorf("%w: invalid response: %w", ErrCheckFailed, err)
	}
	if resp.Passed == nil {
		return false, fmt.Errorf("%w: response has no \"passed\" field", ErrCheckFailed)
	}

	if !*resp.Passed && resp.Message != "" {
		logger.DebugContext(ctx, "check rejected", "message", resp.Message)
	}
	return *resp.Passed, nil
}

func encodeRequest(expected, actual any) ([]byte, error) {
	exp, err := values.Normalize(expected)
	if err != nil {
		return nil, fmt.Errorf("expected value: %w", err)
	}
	act, err := values.Normalize(actual)
	if err != nil {
		return nil, fmt.Errorf("actual value: %w", err)
	}
	return json.Marshal(checkRequest{Expected: exp, Actual: act})
}

// Close releases the compiled plugin, if one was compiled.
func (c *Checker) Close(ctx context.Context) error {
	if c.plugin.State() != host.Ready {
		return nil
	}
	plugin, err := c.plugin.EnsureReady(ctx)
	if err != nil {
		return err
	}
	c.plugin.Reset()
	return plugin.Close(ctx)
}
