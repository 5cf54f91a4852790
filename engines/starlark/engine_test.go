package starlark

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/robbyt/go-polygrade/engines/starlark/compiler"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starlarkLib "go.starlark.net/starlark"
)

func newTestEngine(t *testing.T, opts ...compiler.FunctionalOption) *Engine {
	t.Helper()
	e, err := New(slog.NewTextHandler(os.Stderr, nil), opts...)
	require.NoError(t, err)
	return e
}

// call compiles source, instantiates it and calls the submission with args.
func call(t *testing.T, e *Engine, source string, args ...any) (platform.Value, error) {
	t.Helper()
	prog, err := e.Compile(source)
	require.NoError(t, err)
	ns, err := prog.Instantiate(t.Context(), platform.Env{})
	require.NoError(t, err)
	fn, err := ns.Submission()
	require.NoError(t, err)
	return fn.Call(t.Context(), args)
}

func TestEngine_Basics(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	assert.Equal(t, types.Starlark, e.Type())
	assert.Equal(t, "starlark.Engine", e.String())
}

func TestEngine_Call(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	tests := []struct {
		name   string
		source string
		args   []any
		want   any
	}{
		{
			name:   "double",
			source: "def double(x):\n    return x * 2\n",
			args:   []any{21},
			want:   int64(42),
		},
		{
			name:   "add three",
			source: "def add(a, b, c):\n    return a + b + c\n",
			args:   []any{1, 2, 3},
			want:   int64(6),
		},
		{
			name:   "list argument",
			source: "def total(nums): return sum(nums)\n",
			args:   []any{[]any{1, 2, 3}},
			want:   int64(6),
		},
		{
			name:   "python numeric builtins",
			source: "def stats(a, b):\n    q, r = divmod(a, b)\n    return [q, r, pow(a, 2), round(a / b, 1)]\n",
			args:   []any{7, 2},
			want:   []any{int64(3), int64(1), int64(49), 3.5},
		},
		{
			name:   "returns dict",
			source: "def count(word):\n    out = {}\n    for ch in word.elems():\n        out[ch] = out.get(ch, 0) + 1\n    return out\n",
			args:   []any{"aab"},
			want:   map[string]any{"a": int64(2), "b": int64(1)},
		},
		{
			name:   "returns tuple",
			source: "def pair(a, b):\n    return (b, a)\n",
			args:   []any{"x", 1.5},
			want:   []any{1.5, "x"},
		},
		{
			name:   "no return",
			source: "def nothing():\n    pass\n",
			want:   nil,
		},
		{
			name:   "helper is skipped",
			source: "def _sq(x):\n    return x * x\n\ndef solve(x):\n    return _sq(x) + 1\n",
			args:   []any{3},
			want:   int64(10),
		},
		{
			name:   "lambda binding",
			source: "triple = lambda x: x * 3\n",
			args:   []any{2},
			want:   int64(6),
		},
		{
			name:   "recursion",
			source: "def fib(n):\n    return n if n < 2 else fib(n - 1) + fib(n - 2)\n",
			args:   []any{10},
			want:   int64(55),
		},
		{
			name:   "json module",
			source: "def enc(x):\n    return json.encode(x)\n",
			args:   []any{map[string]any{"b": 1, "a": 2}},
			want:   `{"a":2,"b":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, e, tt.source, tt.args...)
			require.NoError(t, err)
			host, err := got.Interface()
			require.NoError(t, err)
			require.Equal(t, tt.want, host)
		})
	}
}

func TestEngine_Signature(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	tests := []struct {
		name   string
		source string
		want   platform.Signature
	}{
		{name: "no params", source: "def f():\n    pass\n", want: platform.Signature{}},
		{name: "two params", source: "def f(a, b):\n    pass\n", want: platform.Signature{Params: 2}},
		{name: "defaults count", source: "def f(a, b=1):\n    pass\n", want: platform.Signature{Params: 2}},
		{name: "varargs", source: "def f(a, *rest):\n    pass\n", want: platform.Signature{Params: 1, Variadic: true}},
		{name: "only varargs", source: "def f(*rest):\n    pass\n", want: platform.Signature{Variadic: true}},
		{name: "kwargs", source: "def f(a, **kw):\n    pass\n", want: platform.Signature{Params: 1}},
		{name: "keyword only", source: "def f(a, *, key=1):\n    pass\n", want: platform.Signature{Params: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := e.Compile(tt.source)
			require.NoError(t, err)
			ns, err := prog.Instantiate(t.Context(), platform.Env{})
			require.NoError(t, err)
			fn, err := ns.Submission()
			require.NoError(t, err)
			assert.Equal(t, "f", fn.Name())
			assert.Equal(t, tt.want, fn.Signature())
		})
	}
}

func TestEngine_CompileError(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	_, err := e.Compile("def broken(x)\n    return x\n")
	require.Error(t, err)

	var scriptErr *platform.ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, platform.KindSyntaxError, scriptErr.Kind)
	assert.Contains(t, scriptErr.Traceback, compiler.Filename)
	require.ErrorIs(t, err, compiler.ErrCompileFailed)
}

func TestEngine_NoFunction(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	for _, source := range []string{"x = 1\n", "", "def _private():\n    pass\n"} {
		prog, err := e.Compile(source)
		require.NoError(t, err)
		ns, err := prog.Instantiate(t.Context(), platform.Env{})
		require.NoError(t, err)
		_, err = ns.Submission()
		require.ErrorIs(t, err, platform.ErrNoFunctionDefined)
	}
}

func TestEngine_RuntimeErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	tests := []struct {
		name     string
		source   string
		args     []any
		wantKind string
	}{
		{name: "division by zero", source: "def f(x):\n    return x // 0\n", args: []any{1}, wantKind: platform.KindZeroDivisionError},
		{name: "index", source: "def f(xs):\n    return xs[10]\n", args: []any{[]any{1}}, wantKind: platform.KindIndexError},
		{name: "key", source: "def f(d):\n    return d[\"missing\"]\n", args: []any{map[string]any{}}, wantKind: platform.KindKeyError},
		{name: "type", source: "def f(x):\n    return x + \"a\"\n", args: []any{1}, wantKind: platform.KindTypeError},
		{name: "fail builtin", source: "def f():\n    fail(\"boom\")\n", wantKind: platform.KindRuntimeError},
		{name: "fail mentioning missing", source: "def f():\n    fail(\"missing value\")\n", wantKind: platform.KindRuntimeError},
		{name: "fail mentioning zero", source: "def f():\n    fail(\"division by zero\")\n", wantKind: platform.KindRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, e, tt.source, tt.args...)
			var scriptErr *platform.ScriptError
			require.ErrorAs(t, err, &scriptErr)
			assert.Equal(t, tt.wantKind, scriptErr.Kind, scriptErr.Message)
			assert.Contains(t, scriptErr.Traceback, "Traceback")
		})
	}
}

func TestEngine_TopLevelError(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	prog, err := e.Compile("x = 1 // 0\n\ndef f():\n    return x\n")
	require.NoError(t, err)

	_, err = prog.Instantiate(t.Context(), platform.Env{})
	var scriptErr *platform.ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, platform.KindZeroDivisionError, scriptErr.Kind)
}

func TestEngine_FreshNamespace(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	prog, err := e.Compile("seen = []\n\ndef remember(x):\n    seen.append(x)\n    return len(seen)\n")
	require.NoError(t, err)

	for range 3 {
		ns, err := prog.Instantiate(t.Context(), platform.Env{})
		require.NoError(t, err)
		fn, err := ns.Submission()
		require.NoError(t, err)
		got, err := fn.Call(t.Context(), []any{"a"})
		require.NoError(t, err)
		host, err := got.Interface()
		require.NoError(t, err)
		require.Equal(t, int64(1), host)
	}
}

func TestEngine_Print(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	prog, err := e.Compile("print(\"loading\")\n\ndef f(x):\n    print(\"got\", x)\n    return x\n")
	require.NoError(t, err)

	var out bytes.Buffer
	ns, err := prog.Instantiate(t.Context(), platform.Env{Stdout: &out})
	require.NoError(t, err)
	fn, err := ns.Submission()
	require.NoError(t, err)
	_, err = fn.Call(t.Context(), []any{5})
	require.NoError(t, err)

	assert.Equal(t, "loading\ngot 5\n", out.String())
}

func TestEngine_Limits(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	prog, err := e.Compile("def spin():\n    while True:\n        pass\n")
	require.NoError(t, err)

	t.Run("step budget", func(t *testing.T) {
		ns, err := prog.Instantiate(t.Context(), platform.Env{MaxSteps: 10_000})
		require.NoError(t, err)
		fn, err := ns.Submission()
		require.NoError(t, err)

		_, err = fn.Call(t.Context(), nil)
		var scriptErr *platform.ScriptError
		require.ErrorAs(t, err, &scriptErr)
		assert.Equal(t, platform.KindTimeoutError, scriptErr.Kind)
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		ns, err := prog.Instantiate(ctx, platform.Env{})
		require.NoError(t, err)
		fn, err := ns.Submission()
		require.NoError(t, err)

		_, err = fn.Call(ctx, nil)
		var scriptErr *platform.ScriptError
		require.ErrorAs(t, err, &scriptErr)
		assert.Equal(t, platform.KindTimeoutError, scriptErr.Kind)
	})

	t.Run("instantiate context released after top level", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		ns, err := prog.Instantiate(ctx, platform.Env{})
		require.NoError(t, err)
		cancel()

		fn, err := ns.Submission()
		require.NoError(t, err)
		callCtx, callCancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer callCancel()

		_, err = fn.Call(callCtx, nil)
		var scriptErr *platform.ScriptError
		require.ErrorAs(t, err, &scriptErr)
		assert.Equal(t, platform.KindTimeoutError, scriptErr.Kind)
		assert.Contains(t, scriptErr.Message, context.DeadlineExceeded.Error())
	})

	t.Run("call with cancelled context", func(t *testing.T) {
		ns, err := prog.Instantiate(t.Context(), platform.Env{})
		require.NoError(t, err)
		fn, err := ns.Submission()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err = fn.Call(ctx, nil)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := prog.Instantiate(ctx, platform.Env{})
		var scriptErr *platform.ScriptError
		require.ErrorAs(t, err, &scriptErr)
		assert.Equal(t, platform.KindTimeoutError, scriptErr.Kind)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestEngine_Globals(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, compiler.WithGlobals(starlarkLib.StringDict{
		"OFFSET": starlarkLib.MakeInt(100),
	}))

	got, err := call(t, e, "def f(x):\n    return x + OFFSET\n", 1)
	require.NoError(t, err)
	host, err := got.Interface()
	require.NoError(t, err)
	assert.Equal(t, int64(101), host)
	assert.Equal(t, "101", got.Inspect())
	assert.False(t, got.IsNone())
}

func TestEngine_ProgramIdentity(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	source := "def f():\n    return None\n"
	prog, err := e.Compile(source)
	require.NoError(t, err)
	assert.Equal(t, source, prog.Source())
	assert.Len(t, prog.ID(), 12)

	got, err := call(t, e, source)
	require.NoError(t, err)
	assert.True(t, got.IsNone())
}
