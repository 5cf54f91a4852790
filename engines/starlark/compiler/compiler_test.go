package compiler

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		require.NotNil(t, c.logger)
		assert.Equal(t, "starlark.Compiler", c.String())
	})

	t.Run("nil handler rejected", func(t *testing.T) {
		_, err := New(WithLogHandler(nil))
		require.Error(t, err)
	})

	t.Run("nil logger rejected", func(t *testing.T) {
		_, err := New(WithLogger(nil))
		require.Error(t, err)
	})

	t.Run("nil file options rejected", func(t *testing.T) {
		_, err := New(WithFileOptions(nil))
		require.Error(t, err)
	})

	t.Run("logger option sets handler", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c, err := New(WithLogger(logger))
		require.NoError(t, err)
		assert.Equal(t, logger.Handler(), c.logHandler)
	})
}

func TestCompiler_Compile(t *testing.T) {
	t.Parallel()

	c, err := New(WithLogHandler(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)

	t.Run("valid submission", func(t *testing.T) {
		source := "def _check(x):\n    return x\n\ndef solve(x):\n    return _check(x) * 2\n"
		exe, err := c.Compile(source)
		require.NoError(t, err)
		require.NotNil(t, exe)
		assert.Equal(t, source, exe.Source())
		assert.Len(t, exe.ID(), 12)
		assert.NotNil(t, exe.Program())
		assert.Equal(t, []string{"solve"}, exe.BindingOrder())
	})

	t.Run("same source same id", func(t *testing.T) {
		a, err := c.Compile("x = 1\n")
		require.NoError(t, err)
		b, err := c.Compile("x = 1\n")
		require.NoError(t, err)
		assert.Equal(t, a.ID(), b.ID())
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := c.Compile("def f(x)\n    return x\n")
		require.ErrorIs(t, err, ErrCompileFailed)

		msg, pos := SyntaxErrorDetail(err)
		assert.NotEmpty(t, msg)
		assert.Contains(t, pos, Filename)
	})

	t.Run("resolve error", func(t *testing.T) {
		_, err := c.Compile("def f():\n    return nope\n")
		require.ErrorIs(t, err, ErrCompileFailed)

		msg, pos := SyntaxErrorDetail(err)
		assert.Contains(t, msg, "nope")
		assert.Contains(t, pos, Filename)
	})

	t.Run("strict dialect rejects top level loop", func(t *testing.T) {
		strict, err := New(WithFileOptions(&syntax.FileOptions{}))
		require.NoError(t, err)
		_, err = strict.Compile("for i in range(3):\n    pass\n")
		require.ErrorIs(t, err, ErrCompileFailed)
	})
}

func TestCompiler_Globals(t *testing.T) {
	t.Parallel()

	c, err := New(WithGlobals(starlarkLib.StringDict{"EPSILON": starlarkLib.Float(1e-9)}))
	require.NoError(t, err)

	_, err = c.Compile("def close(a, b):\n    return a - b < EPSILON and b - a < EPSILON\n")
	require.NoError(t, err)

	predeclared := c.Predeclared()
	assert.True(t, predeclared.Has("EPSILON"))
	assert.True(t, predeclared.Has("json"))
}

func TestSyntaxErrorDetail_Plain(t *testing.T) {
	t.Parallel()

	msg, pos := SyntaxErrorDetail(ErrContentNil)
	assert.Equal(t, ErrContentNil.Error(), msg)
	assert.Empty(t, pos)
}
