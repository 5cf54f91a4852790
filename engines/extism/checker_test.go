package extism

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-polygrade/engines/extism/adapters"
	"github.com/robbyt/go-polygrade/platform/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCompiledPlugin struct {
	mock.Mock
}

func (m *mockCompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (adapters.PluginInstance, error) {
	args := m.Called(ctx, config)
	instance, _ := args.Get(0).(adapters.PluginInstance)
	return instance, args.Error(1)
}

func (m *mockCompiledPlugin) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPluginInstance struct {
	mock.Mock
}

func (m *mockPluginInstance) CallWithContext(
	ctx context.Context,
	name string,
	data []byte,
) (uint32, []byte, error) {
	args := m.Called(ctx, name, data)
	out, _ := args.Get(1).([]byte)
	return args.Get(0).(uint32), out, args.Error(2)
}

func (m *mockPluginInstance) FunctionExists(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *mockPluginInstance) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestChecker(
	t *testing.T,
	plugin adapters.CompiledPlugin,
	opts ...FunctionalOption,
) *Checker {
	t.Helper()
	c, err := newChecker(
		slog.NewTextHandler(os.Stderr, nil),
		func(context.Context) (adapters.CompiledPlugin, error) { return plugin, nil },
		opts...,
	)
	require.NoError(t, err)
	return c
}

func TestChecker_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		exit       uint32
		output     []byte
		callErr    error
		wantPassed bool
		wantErr    error
	}{
		{name: "passed", output: []byte(`{"passed": true}`), wantPassed: true},
		{name: "rejected", output: []byte(`{"passed": false, "message": "off by one"}`)},
		{name: "non-zero exit", exit: 1, output: []byte(`{"passed": true}`), wantErr: ErrCheckFailed},
		{name: "call error", callErr: errors.New("trap"), wantErr: ErrCheckFailed},
		{name: "invalid json", output: []byte(`not json`), wantErr: ErrCheckFailed},
		{name: "missing passed field", output: []byte(`{"message": "?"}`), wantErr: ErrCheckFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := new(mockPluginInstance)
			instance.On("FunctionExists", DefaultEntryPoint).Return(true)
			instance.On("CallWithContext", mock.Anything, DefaultEntryPoint, mock.Anything).
				Return(tt.exit, tt.output, tt.callErr)
			instance.On("Close", mock.Anything).Return(nil)

			plugin := new(mockCompiledPlugin)
			plugin.On("Instance", mock.Anything, mock.Anything).Return(instance, nil)

			c := newTestChecker(t, plugin)
			passed, err := c.Check(t.Context(), []any{1, 2}, []any{1, 2})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, passed)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPassed, passed)
			}
			instance.AssertExpectations(t)
			plugin.AssertExpectations(t)
		})
	}
}

func TestChecker_RequestPayload(t *testing.T) {
	t.Parallel()

	instance := new(mockPluginInstance)
	instance.On("FunctionExists", "compare").Return(true)
	instance.On("CallWithContext", mock.Anything, "compare", mock.MatchedBy(func(data []byte) bool {
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			return false
		}
		return assert.ObjectsAreEqual(map[string]any{"a": float64(1)}, req["expected"]) &&
			assert.ObjectsAreEqual("x", req["actual"])
	})).Return(uint32(0), []byte(`{"passed": true}`), nil)
	instance.On("Close", mock.Anything).Return(nil)

	plugin := new(mockCompiledPlugin)
	plugin.On("Instance", mock.Anything, mock.Anything).Return(instance, nil)

	c := newTestChecker(t, plugin, WithEntryPoint("compare"))
	passed, err := c.Check(t.Context(), map[string]int{"a": 1}, "x")
	require.NoError(t, err)
	assert.True(t, passed)
	instance.AssertExpectations(t)
}

func TestChecker_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing entry point", func(t *testing.T) {
		instance := new(mockPluginInstance)
		instance.On("FunctionExists", DefaultEntryPoint).Return(false)
		instance.On("Close", mock.Anything).Return(nil)
		plugin := new(mockCompiledPlugin)
		plugin.On("Instance", mock.Anything, mock.Anything).Return(instance, nil)

		_, err := newTestChecker(t, plugin).Check(t.Context(), 1, 1)
		require.ErrorIs(t, err, ErrEntryPointNotFound)
	})

	t.Run("instance failure", func(t *testing.T) {
		plugin := new(mockCompiledPlugin)
		plugin.On("Instance", mock.Anything, mock.Anything).Return(nil, errors.New("no memory"))

		_, err := newTestChecker(t, plugin).Check(t.Context(), 1, 1)
		require.ErrorIs(t, err, ErrCheckFailed)
	})

	t.Run("unencodable value", func(t *testing.T) {
		plugin := new(mockCompiledPlugin)
		_, err := newTestChecker(t, plugin).Check(t.Context(), math.NaN(), 1)
		require.ErrorIs(t, err, ErrCheckFailed)
		plugin.AssertNotCalled(t, "Instance", mock.Anything, mock.Anything)
	})

	t.Run("compile failure surfaces as initialization error", func(t *testing.T) {
		c, err := newChecker(nil, func(context.Context) (adapters.CompiledPlugin, error) {
			return nil, ErrCompileFailed
		})
		require.NoError(t, err)
		_, err = c.Check(t.Context(), 1, 1)
		require.ErrorIs(t, err, host.ErrInterpreterInitialization)
		require.ErrorIs(t, err, ErrCompileFailed)
	})
}

func TestChecker_CompilesOnce(t *testing.T) {
	t.Parallel()

	instance := new(mockPluginInstance)
	instance.On("FunctionExists", DefaultEntryPoint).Return(true)
	instance.On("CallWithContext", mock.Anything, DefaultEntryPoint, mock.Anything).
		Return(uint32(0), []byte(`{"passed": true}`), nil)
	instance.On("Close", mock.Anything).Return(nil)
	plugin := new(mockCompiledPlugin)
	plugin.On("Instance", mock.Anything, mock.Anything).Return(instance, nil)
	plugin.On("Close", mock.Anything).Return(nil)

	compiles := 0
	c, err := newChecker(nil, func(context.Context) (adapters.CompiledPlugin, error) {
		compiles++
		return plugin, nil
	})
	require.NoError(t, err)

	for range 3 {
		passed, err := c.Check(t.Context(), "a", "a")
		require.NoError(t, err)
		require.True(t, passed)
	}
	require.Equal(t, 1, compiles)

	require.NoError(t, c.Close(t.Context()))
	plugin.AssertCalled(t, "Close", mock.Anything)
	require.Equal(t, host.Uninitialized, c.plugin.State())
}

func TestNewChecker(t *testing.T) {
	t.Parallel()

	t.Run("empty module", func(t *testing.T) {
		_, err := NewChecker(nil, nil)
		require.ErrorIs(t, err, ErrContentNil)
	})

	t.Run("invalid module fails on first check", func(t *testing.T) {
		c, err := NewChecker(nil, []byte("not wasm"), WithoutWASI())
		require.NoError(t, err)
		assert.Equal(t, "extism.Checker", c.String())
		assert.False(t, c.settings.EnableWASI)

		_, err = c.Check(t.Context(), 1, 1)
		require.ErrorIs(t, err, ErrCompileFailed)
		require.NoError(t, c.Close(t.Context()))
	})

	t.Run("bad options", func(t *testing.T) {
		_, err := NewChecker(nil, []byte("x"), WithEntryPoint(""))
		require.Error(t, err)
		_, err = NewChecker(nil, []byte("x"), WithRuntimeConfig(nil))
		require.Error(t, err)
	})
}
