// Package adapters narrows the Extism SDK types the checker depends on to small interfaces,
// so checker code can be exercised with mocks.
package adapters

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
)

// CompiledPlugin is the subset of extismSDK.CompiledPlugin used by the checker.
type CompiledPlugin interface {
	Instance(ctx context.Context, config extismSDK.PluginInstanceConfig) (PluginInstance, error)
	Close(ctx context.Context) error
}

// PluginInstance is the subset of extismSDK.Plugin used by the checker.
type PluginInstance interface {
	CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error)
	FunctionExists(name string) bool
	Close(ctx context.Context) error
}
