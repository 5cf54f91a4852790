// Package config loads command line configuration from flags, POLYGRADE_* environment
// variables and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/options"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "POLYGRADE"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the settings of one polygrade invocation.
type Config struct {
	Problem    string
	ProblemID  string
	Source     string
	Engine     types.Type
	Checker    string
	EntryPoint string
	Timeout    time.Duration
	MaxSteps   uint64
	Format     string
	LogLevel   slog.Level
	LogFormat  string
}

// NewFlagSet defines the flags of the run command.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("problem", "p", "", "problem catalog: file path, URL or inline JSON/YAML document")
	fs.String("id", "", "problem id, optional when the catalog holds a single problem")
	fs.StringP("source", "s", "", "submission file; defaults to the problem's starter code")
	fs.StringP("engine", "e", types.Starlark.String(), "submission engine: starlark or risor")
	fs.String("checker", "", "WASM checker plugin replacing built-in equality")
	fs.String("entry-point", "check", "exported checker function")
	fs.Duration("timeout", options.DefaultTestTimeout, "per test case time limit, 0 disables it")
	fs.Uint64("max-steps", 0, "per test case Starlark step budget, 0 is unlimited")
	fs.StringP("format", "f", FormatText, "output format: text or json")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.String("log-format", FormatText, "log format: text or json")
	return fs
}

// Load resolves the configuration for fs, which must already be parsed. envFiles are
// read with godotenv; missing files are ignored. With no envFiles, ".env" is tried.
func Load(fs *pflag.FlagSet, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := Config{
		Problem:    v.GetString("problem"),
		ProblemID:  v.GetString("id"),
		Source:     v.GetString("source"),
		Checker:    v.GetString("checker"),
		EntryPoint: v.GetString("entry-point"),
		Timeout:    v.GetDuration("timeout"),
		MaxSteps:   v.GetUint64("max-steps"),
		Format:     strings.ToLower(v.GetString("format")),
		LogFormat:  strings.ToLower(v.GetString("log-format")),
	}

	var errz []error
	engine, err := types.Parse(strings.ToLower(v.GetString("engine")))
	if err != nil {
		errz = append(errz, err)
	}
	cfg.Engine = engine

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		errz = append(errz, fmt.Errorf("invalid log level: %w", err))
	}
	if cfg.Problem == "" {
		errz = append(errz, errors.New("a problem catalog is required (--problem or POLYGRADE_PROBLEM)"))
	}
	if cfg.Timeout < 0 {
		errz = append(errz, fmt.Errorf("timeout cannot be negative: %s", cfg.Timeout))
	}
	if cfg.Format != FormatText && cfg.Format != FormatJSON {
		errz = append(errz, fmt.Errorf("unsupported output format: %q", cfg.Format))
	}
	if cfg.LogFormat != FormatText && cfg.LogFormat != FormatJSON {
		errz = append(errz, fmt.Errorf("unsupported log format: %q", cfg.LogFormat))
	}
	if err := errors.Join(errz...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Handler builds the log handler described by the config.
func (c Config) Handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Options converts the config into grader options.
func (c Config) Options(handler slog.Handler) []options.Option {
	return []options.Option{
		options.WithLogHandler(handler),
		options.WithEngine(c.Engine),
		options.WithTestTimeout(c.Timeout),
		options.WithMaxSteps(c.MaxSteps),
	}
}
