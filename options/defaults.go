package options

import (
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robbyt/go-polygrade/engines/types"
	"go.opentelemetry.io/otel"
)

// DefaultTestTimeout is the per-test-case limit applied when none is configured.
const DefaultTestTimeout = 5 * time.Second

// DefaultConfig initializes a Config with sensible defaults
func DefaultConfig(engineType types.Type) *Config {
	cfg := &Config{
		handler:     DefaultHandler(),
		engineType:  engineType,
		testTimeout: DefaultTestTimeout,
	}
	cfg.registerer = prometheus.NewRegistry()
	cfg.tracerProvider = otel.GetTracerProvider()
	return cfg
}

// DefaultHandler returns the default logging handler
func DefaultHandler() slog.Handler {
	return slog.NewTextHandler(os.Stdout, nil)
}

// WithDefaults applies default values to any config properties that are unset
func WithDefaults() Option {
	return func(c *Config) error {
		if c.handler == nil {
			c.handler = DefaultHandler()
		}
		if c.engineType == "" {
			c.engineType = types.Starlark
		}
		if c.registerer == nil {
			c.registerer = prometheus.NewRegistry()
		}
		if c.tracerProvider == nil {
			c.tracerProvider = otel.GetTracerProvider()
		}
		return nil
	}
}
