// Package options configures a grader with functional options.
package options

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/platform"
	"github.com/robbyt/go-polygrade/platform/host"
	"go.opentelemetry.io/otel/trace"
)

// Config holds all configuration for creating a grader
type Config struct {
	handler slog.Handler

	// engine the submissions are written for (starlark, risor)
	engineType types.Type

	// per-test-case wall clock limit; zero disables it
	testTimeout time.Duration

	// interpreter step budget per test case, for engines that count steps; zero is unlimited
	maxSteps uint64

	// replaces the built-in equality policy when set
	checker platform.Checker

	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider

	// interpreter host shared by graders; nil means the process-wide host for engineType
	host *host.Host[platform.Engine]
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithLogHandler sets the log handler for the grader
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler != nil {
			c.handler = handler
		}
		return nil
	}
}

// WithSlog sets the log handler from an existing logger
func WithSlog(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger != nil {
			c.handler = logger.Handler()
		}
		return nil
	}
}

// WithEngine selects the submission engine
func WithEngine(engineType types.Type) Option {
	return func(c *Config) error {
		if _, err := types.Parse(engineType.String()); err != nil {
			return err
		}
		c.engineType = engineType
		return nil
	}
}

// WithTestTimeout bounds the wall time of each test case. Zero disables the limit.
func WithTestTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("test timeout cannot be negative: %s", d)
		}
		c.testTimeout = d
		return nil
	}
}

// WithMaxSteps bounds the number of interpreter steps per test case. Only the Starlark
// engine counts steps. Zero means unlimited.
func WithMaxSteps(n uint64) Option {
	return func(c *Config) error {
		c.maxSteps = n
		return nil
	}
}

// WithChecker replaces built-in equality with a custom checker, such as a WASM plugin
func WithChecker(checker platform.Checker) Option {
	return func(c *Config) error {
		if checker == nil {
			return fmt.Errorf("checker cannot be nil")
		}
		c.checker = checker
		return nil
	}
}

// WithRegisterer registers grading metrics on reg instead of a private registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) error {
		if reg == nil {
			return fmt.Errorf("registerer cannot be nil")
		}
		c.registerer = reg
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider used for grading spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) error {
		if tp == nil {
			return fmt.Errorf("tracer provider cannot be nil")
		}
		c.tracerProvider = tp
		return nil
	}
}

// WithHost uses a specific interpreter host instead of the process-wide one
func WithHost(h *host.Host[platform.Engine]) Option {
	return func(c *Config) error {
		if h == nil {
			return fmt.Errorf("host cannot be nil")
		}
		c.host = h
		return nil
	}
}

// Validate checks that the configuration is complete
func (c *Config) Validate() error {
	var errz []error
	if c.handler == nil {
		errz = append(errz, fmt.Errorf("no log handler specified"))
	}
	if c.engineType == "" {
		errz = append(errz, fmt.Errorf("no engine type specified"))
	}
	if c.registerer == nil {
		errz = append(errz, fmt.Errorf("no metrics registerer specified"))
	}
	if c.tracerProvider == nil {
		errz = append(errz, fmt.Errorf("no tracer provider specified"))
	}
	return errors.Join(errz...)
}

func (c *Config) GetHandler() slog.Handler {
	return c.handler
}

func (c *Config) GetEngineType() types.Type {
	return c.engineType
}

func (c *Config) SetEngineType(engineType types.Type) {
	c.engineType = engineType
}

func (c *Config) GetTestTimeout() time.Duration {
	return c.testTimeout
}

func (c *Config) GetMaxSteps() uint64 {
	return c.maxSteps
}

// GetChecker returns the custom checker, or nil for built-in equality
func (c *Config) GetChecker() platform.Checker {
	return c.checker
}

func (c *Config) GetRegisterer() prometheus.Registerer {
	return c.registerer
}

func (c *Config) GetTracerProvider() trace.TracerProvider {
	return c.tracerProvider
}

// GetHost returns the configured host, or nil when the process-wide host should be used
func (c *Config) GetHost() *host.Host[platform.Engine] {
	return c.host
}
