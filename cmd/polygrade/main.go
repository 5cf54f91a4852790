// Command polygrade grades a submission against a problem from a catalog document.
//
//	polygrade run --problem problems.yaml --id add --source add.star
//
// It exits 0 when every test case passes, 1 when some fail and 2 when grading could not
// run at all.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/robbyt/go-polygrade"
	"github.com/robbyt/go-polygrade/engines/extism"
	"github.com/robbyt/go-polygrade/internal/config"
	"github.com/robbyt/go-polygrade/options"
	"github.com/robbyt/go-polygrade/platform/script/loader"
	"github.com/robbyt/go-polygrade/platform/values"
	"github.com/spf13/pflag"
)

const (
	exitPassed = 0
	exitFailed = 1
	exitSetup  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	_, _ = fmt.Fprintln(w, "usage: polygrade run --problem <file|url> [flags]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, fs.FlagUsages())
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := config.NewFlagSet("polygrade run")
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }

	if len(args) == 0 || args[0] != "run" {
		usage(stderr, fs)
		return exitSetup
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitPassed
		}
		return exitSetup
	}

	cfg, err := config.Load(fs)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return exitSetup
	}

	res, err := grade(ctx, cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return exitSetup
	}

	if err := write(stdout, cfg.Format, res); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return exitSetup
	}
	if !res.Summary.AllPassed() {
		return exitFailed
	}
	return exitPassed
}

func grade(ctx context.Context, cfg config.Config, logs io.Writer) (*polygrade.ExecutionResult, error) {
	handler := cfg.Handler(logs)

	catalogInput, err := resolve("problem catalog", cfg.Problem)
	if err != nil {
		return nil, err
	}
	provider, err := polygrade.LoadCatalog(catalogInput)
	if err != nil {
		return nil, err
	}

	id := cfg.ProblemID
	if id == "" {
		ids, err := provider.IDs()
		if err != nil {
			return nil, err
		}
		if len(ids) != 1 {
			return nil, fmt.Errorf("catalog holds %d problems, pick one with --id: %s",
				len(ids), strings.Join(ids, ", "))
		}
		id = ids[0]
	}

	var source string
	if cfg.Source != "" {
		path, err := filepath.Abs(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source path: %w", err)
		}
		l, err := loader.NewFromDisk(path)
		if err != nil {
			return nil, err
		}
		data, err := loader.ReadAll(l)
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
		source = string(data)
	}

	opts := cfg.Options(handler)
	if cfg.Checker != "" {
		checkerInput, err := resolve("checker", cfg.Checker)
		if err != nil {
			return nil, err
		}
		checker, err := polygrade.LoadChecker(handler, checkerInput, extism.WithEntryPoint(cfg.EntryPoint))
		if err != nil {
			return nil, err
		}
		defer func() { _ = checker.Close(context.WithoutCancel(ctx)) }()
		opts = append(opts, options.WithChecker(checker))
	}

	g, err := polygrade.NewGrader(opts...)
	if err != nil {
		return nil, err
	}
	return g.ExecuteProblem(ctx, provider, id, source)
}

// resolve passes URLs and inline documents through and turns anything else into an absolute
// path to a file that must exist.
func resolve(what, input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	switch {
	case strings.Contains(trimmed, "\n"),
		strings.HasPrefix(trimmed, "{"),
		strings.HasPrefix(trimmed, "["),
		strings.Contains(trimmed, "://"):
		return input, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", what, input, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", what, input, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s %q: is a directory", what, input)
	}
	return abs, nil
}

func write(w io.Writer, format string, res *polygrade.ExecutionResult) error {
	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	for i, r := range res.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		_, _ = fmt.Fprintf(w, "#%d %s input=%s expected=%s actual=%s (%s)\n",
			i+1, status, show(r.Input), show(r.Expected), show(r.Actual), r.Duration)
		if r.Error != "" {
			_, _ = fmt.Fprintln(w, indent("Error: "+r.Error))
		}
		if r.Output != "" {
			_, _ = fmt.Fprintln(w, indent("output:\n"+strings.TrimRight(r.Output, "\n")))
		}
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d total\n",
		res.Summary.Passed, res.Summary.Failed, res.Summary.Total)
	return err
}

func show(v any) string {
	if s, err := values.Canonical(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
