package compile

import (
	"context"
	"errors"
	"fmt"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-polygrade/engines/extism/adapters"
	"github.com/tetratelabs/wazero"
)

var (
	ErrCompileFailed = errors.New("failed to compile wasm plugin")
	ErrContentNil    = errors.New("wasm content is empty")
)

// Settings holds configuration for compiling a WASM module.
type Settings struct {
	EnableWASI    bool
	RuntimeConfig wazero.RuntimeConfig
	HostFunctions []extismSDK.HostFunction
}

// DefaultSettings enables WASI on a default wazero runtime.
func DefaultSettings() *Settings {
	return &Settings{
		EnableWASI:    true,
		RuntimeConfig: wazero.NewRuntimeConfig(),
	}
}

// CompileBytes creates a compiled Extism plugin from raw WASM bytes.
func CompileBytes(
	ctx context.Context,
	wasmBytes []byte,
	opts *Settings,
) (adapters.CompiledPlugin, error) {
	if len(wasmBytes) == 0 {
		return nil, ErrContentNil
	}
	if opts == nil {
		opts = DefaultSettings()
	}

	manifest := extismSDK.Manifest{
		Wasm: []extismSDK.Wasm{
			extismSDK.WasmData{Data: wasmBytes},
		},
	}
	config := extismSDK.PluginConfig{
		EnableWasi:    opts.EnableWASI,
		RuntimeConfig: opts.RuntimeConfig,
	}

	plugin, err := extismSDK.NewCompiledPlugin(ctx, manifest, config, opts.HostFunctions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return adapters.NewCompiledPluginAdapter(plugin), nil
}
