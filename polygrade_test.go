package polygrade_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-polygrade"
	"github.com/robbyt/go-polygrade/engines/extism"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = options.WithLogHandler(slog.NewTextHandler(io.Discard, nil))

func TestExecuteCode(t *testing.T) {
	t.Parallel()

	source := `
def fizzbuzz(n):
    out = []
    for i in range(1, n + 1):
        if i % 15 == 0:
            out.append("FizzBuzz")
        elif i % 3 == 0:
            out.append("Fizz")
        elif i % 5 == 0:
            out.append("Buzz")
        else:
            out.append(str(i))
    return out
`
	cases := []polygrade.TestCase{
		{Input: 5, ExpectedOutput: []any{"1", "2", "Fizz", "4", "Buzz"}},
		{Input: 0, ExpectedOutput: []any{}},
		{Input: []any{1, 2}, ExpectedOutput: []any{"1"}},
	}

	res, err := polygrade.ExecuteCode(t.Context(), source, cases, quiet)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.True(t, res.Results[0].Passed)
	assert.True(t, res.Results[1].Passed)
	assert.False(t, res.Results[2].Passed)
	assert.Contains(t, res.Results[2].Error, "TypeError")
	assert.Equal(t, polygrade.Summary{Passed: 2, Failed: 1, Total: 3}, res.Summary)
	assert.False(t, res.Summary.AllPassed())
}

func TestNewGraders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		create func() (*polygrade.Grader, error)
		want   types.Type
	}{
		{name: "default", create: func() (*polygrade.Grader, error) { return polygrade.NewGrader(quiet) }, want: types.Starlark},
		{name: "engine option", create: func() (*polygrade.Grader, error) {
			return polygrade.NewGrader(quiet, options.WithEngine(types.Risor))
		}, want: types.Risor},
		{name: "starlark", create: func() (*polygrade.Grader, error) { return polygrade.NewStarlarkGrader(quiet) }, want: types.Starlark},
		{name: "risor", create: func() (*polygrade.Grader, error) { return polygrade.NewRisorGrader(quiet) }, want: types.Risor},
		{name: "risor wins over option", create: func() (*polygrade.Grader, error) {
			return polygrade.NewRisorGrader(quiet, options.WithEngine(types.Starlark))
		}, want: types.Risor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.create()
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.EngineType())
		})
	}

	_, err := polygrade.NewGrader(options.WithChecker(nil))
	require.Error(t, err)
}

func TestRisorSubmission(t *testing.T) {
	t.Parallel()

	g, err := polygrade.NewRisorGrader(quiet)
	require.NoError(t, err)

	source := `
func stats(a, b) {
	return {"product": a * b, "sum": a + b}
}
`
	cases := []polygrade.TestCase{
		{Input: []any{2, 3}, ExpectedOutput: map[string]any{"sum": 5, "product": 6}},
		{Input: []any{0, 0}, ExpectedOutput: map[string]any{"sum": 0, "product": 0}},
	}
	res, err := g.ExecuteCode(t.Context(), source, cases)
	require.NoError(t, err)
	assert.True(t, res.Summary.AllPassed(), "%+v", res.Results)
}

const problems = `
problems:
  - id: reverse
    language: starlark
    starter_code: |
      def reverse(xs):
          return xs
    test_cases:
      - input: [1, 2, 3]
        expected_output: [3, 2, 1]
      - input: [7]
        expected_output: [7]
`

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "problems.yaml")
	require.NoError(t, os.WriteFile(path, []byte(problems), 0o600))

	provider, err := polygrade.LoadCatalog(path)
	require.NoError(t, err)

	g, err := polygrade.NewStarlarkGrader(quiet)
	require.NoError(t, err)

	starter, err := g.ExecuteProblem(t.Context(), provider, "reverse", "")
	require.NoError(t, err)
	assert.Equal(t, polygrade.Summary{Passed: 1, Failed: 1, Total: 2}, starter.Summary)

	solved, err := g.ExecuteProblem(t.Context(), provider, "reverse", "def reverse(xs):\n    return xs[::-1]\n")
	require.NoError(t, err)
	assert.True(t, solved.Summary.AllPassed(), "%+v", solved.Results)

	_, err = polygrade.LoadCatalog(42)
	require.Error(t, err)
}

func TestLoadChecker(t *testing.T) {
	t.Parallel()

	_, err := polygrade.LoadChecker(nil, filepath.Join(t.TempDir(), "missing.wasm"))
	require.Error(t, err)

	checker, err := polygrade.LoadChecker(slog.NewTextHandler(io.Discard, nil), []byte("not wasm"), extism.WithoutWASI())
	require.NoError(t, err)

	// a checker that fails to compile fails the case instead of the run
	res, err := polygrade.ExecuteCode(t.Context(), "def f(x):\n    return x\n",
		[]polygrade.TestCase{{Input: 1, ExpectedOutput: 1}},
		quiet, options.WithChecker(checker))
	require.NoError(t, err)
	assert.False(t, res.Results[0].Passed)
	assert.Contains(t, res.Results[0].Error, extism.ErrCompileFailed.Error())
}
