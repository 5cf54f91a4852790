package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		want    string
	}{
		{"floored division by zero", KindZeroDivisionError},
		{"value error: division by zero", KindZeroDivisionError},
		{"index 5 out of range: index 5 out of range [0:3]", KindIndexError},
		{`key "x" not in dict`, KindKeyError},
		{"unknown binary op: int + string", KindTypeError},
		{"type error: attribute \"append\" not found on int object", KindTypeError},
		{"function f missing 1 argument (b)", KindTypeError},
		{"Starlark computation cancelled: too many steps", KindTimeoutError},
		{"context deadline exceeded", KindTimeoutError},
		{"invalid literal for int()", KindValueError},
		{"fail: boom", KindRuntimeError},
		{"fail: missing value", KindRuntimeError},
		{"fail: division by zero", KindRuntimeError},
		{"fail: type error: not really", KindRuntimeError},
		{"missing value", KindRuntimeError},
		{"value is out of range", KindRuntimeError},
		{`key "by zero" not in dict`, KindKeyError},
		{`key "missing" not in dict`, KindKeyError},
		{`unknown binary op: string + int`, KindTypeError},
		{"type error: unsupported operation for int: + on type string", KindTypeError},
		{"index error: index out of range: 5", KindIndexError},
		{"key error: key not found", KindKeyError},
		{"list has no .push field or method", KindTypeError},
		{"function f accepts 2 positional arguments (3 given)", KindTypeError},
		{"len: value of type int has no len", KindTypeError},
		{"context canceled", KindTimeoutError},
		{"not a context canceled message", KindRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyMessage(tt.message))
		})
	}
}

func TestScriptError(t *testing.T) {
	t.Parallel()

	t.Run("detail with traceback", func(t *testing.T) {
		cause := errors.New("underlying")
		err := NewScriptError("", "floored division by zero", "Traceback (most recent call last):\n  f:2:12\n", cause)

		require.Equal(t, KindZeroDivisionError, err.Kind)
		require.Equal(t, "ZeroDivisionError: floored division by zero", err.Error())
		require.Equal(t,
			"ZeroDivisionError: floored division by zero\nTraceback (most recent call last):\n  f:2:12",
			err.Detail(),
		)
		require.ErrorIs(t, err, cause)
	})

	t.Run("detail without traceback", func(t *testing.T) {
		err := NewScriptError(KindTypeError, "bad operand", "", nil)
		require.Equal(t, "TypeError: bad operand", err.Detail())
	})

	t.Run("no function defined", func(t *testing.T) {
		err := NoFunctionDefined()
		require.ErrorIs(t, err, ErrNoFunctionDefined)
		require.Equal(t, KindNoFunctionDefined, err.Kind)

		var scriptErr *ScriptError
		require.ErrorAs(t, error(err), &scriptErr)
	})
}
