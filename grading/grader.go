// Package grading runs a submission against an ordered list of test cases and reports
// a pass/fail result per case.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/internal/helpers"
	"github.com/robbyt/go-polygrade/options"
	"github.com/robbyt/go-polygrade/platform"
	"github.com/robbyt/go-polygrade/platform/catalog"
	"github.com/robbyt/go-polygrade/platform/host"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/robbyt/go-polygrade/grading"

// ErrLanguageMismatch is returned by ExecuteProblem when the problem targets another engine.
var ErrLanguageMismatch = errors.New("problem language does not match grader engine")

// Grader grades submissions for one engine. Runs on the same Grader are serialized.
type Grader struct {
	engineType types.Type
	host       *host.Host[platform.Engine]
	runner     *Runner
	comparator *Comparator
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *slog.Logger

	mu sync.Mutex
}

// New creates a Grader. Without options it grades Starlark submissions on the
// process-wide Starlark host.
func New(opts ...options.Option) (*Grader, error) {
	cfg := options.DefaultConfig(types.Starlark)
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return NewFromConfig(cfg)
}

// NewFromConfig creates a Grader from a complete Config.
func NewFromConfig(cfg *options.Config) (*Grader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	handler, logger := helpers.SetupLogger(cfg.GetHandler(), "grading", "Grader")

	metrics, err := NewMetrics(cfg.GetRegisterer())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	h := cfg.GetHost()
	if h == nil {
		h = SharedHost(cfg.GetEngineType(), handler)
	}

	return &Grader{
		engineType: cfg.GetEngineType(),
		host:       h,
		runner:     NewRunner(handler, cfg.GetTestTimeout(), cfg.GetMaxSteps()),
		comparator: NewComparator(handler, cfg.GetChecker()),
		metrics:    metrics,
		tracer:     cfg.GetTracerProvider().Tracer(tracerName),
		logger:     logger.With("engine", cfg.GetEngineType().String()),
	}, nil
}

func (g *Grader) String() string {
	return fmt.Sprintf("grading.Grader{Engine: %s}", g.engineType)
}

// EngineType reports which engine the grader runs submissions on.
func (g *Grader) EngineType() types.Type {
	return g.engineType
}

// ExecuteCode grades source against cases, in order. Faults in the submission are
// reported per test case; the only error returned is a failure to initialize the
// interpreter, wrapping ErrInterpreterInitialization.
func (g *Grader) ExecuteCode(
	ctx context.Context,
	source string,
	cases []TestCase,
) (*ExecutionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	runID := uuid.NewString()
	engineName := g.engineType.String()
	logger := g.logger.WithGroup("ExecuteCode").With("runID", runID)

	ctx, span := g.tracer.Start(ctx, "grading.ExecuteCode", trace.WithAttributes(
		attribute.String("polygrade.run_id", runID),
		attribute.String("polygrade.engine", engineName),
		attribute.Int("polygrade.test_cases", len(cases)),
	))
	defer span.End()

	engine, err := g.ensureEngine(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interpreter initialization failed")
		logger.ErrorContext(ctx, "interpreter initialization failed", "error", err)
		return nil, err
	}
	g.metrics.observeRun(engineName)

	program, compileErr := engine.Compile(source)
	if compileErr != nil {
		logger.DebugContext(ctx, "submission failed to compile", "error", compileErr)
	}

	results := make([]TestResult, 0, len(cases))
	for i, tc := range cases {
		results = append(results, g.runTestCase(ctx, i, tc, program, compileErr))
	}

	summary := Summarize(results)
	span.SetAttributes(
		attribute.Int("polygrade.passed", summary.Passed),
		attribute.Int("polygrade.failed", summary.Failed),
	)
	logger.InfoContext(ctx, "run complete",
		"passed", summary.Passed,
		"failed", summary.Failed,
		"total", summary.Total,
	)

	return &ExecutionResult{
		RunID:   runID,
		Results: results,
		Summary: summary,
	}, nil
}

func (g *Grader) runTestCase(
	ctx context.Context,
	index int,
	tc TestCase,
	program platform.Program,
	compileErr error,
) TestResult {
	ctx, span := g.tracer.Start(ctx, "grading.TestCase", trace.WithAttributes(
		attribute.Int("polygrade.index", index),
	))
	defer span.End()

	var out Outcome
	if compileErr != nil {
		out = Outcome{Err: compileErr}
	} else {
		out = g.runner.Run(ctx, program, tc.Input)
	}

	result := g.comparator.Compare(ctx, tc, out)
	g.metrics.observeTestCase(g.engineType.String(), result)

	span.SetAttributes(attribute.Bool("polygrade.passed", result.Passed))
	if result.Error != "" {
		span.SetStatus(codes.Error, firstLine(result.Error))
	}
	return result
}

func (g *Grader) ensureEngine(ctx context.Context) (platform.Engine, error) {
	initializing := g.host.State() != host.Ready
	engine, err := g.host.EnsureReady(ctx)
	if initializing {
		g.metrics.observeHostInit(g.engineType.String(), err)
	}
	if err != nil && !errors.Is(err, ErrInterpreterInitialization) {
		err = fmt.Errorf("%w: %s: %w", ErrInterpreterInitialization, g.host.Name(), err)
	}
	return engine, err
}

// ExecuteProblem grades source against a problem from provider. An empty source grades
// the problem's starter code.
func (g *Grader) ExecuteProblem(
	ctx context.Context,
	provider catalog.Provider,
	problemID string,
	source string,
) (*ExecutionResult, error) {
	problem, err := provider.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.Language != "" && problem.Language != g.engineType.String() {
		return nil, fmt.Errorf("%w: %q is written for %s, grader runs %s",
			ErrLanguageMismatch, problem.ID, problem.Language, g.engineType)
	}
	if strings.TrimSpace(source) == "" {
		source = problem.StarterCode
	}
	return g.ExecuteCode(ctx, source, problem.TestCases)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
