package adapters

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
)

type sdkCompiledPlugin struct {
	plugin *extismSDK.CompiledPlugin
}

// NewCompiledPluginAdapter wraps an SDK compiled plugin. A nil plugin yields nil.
func NewCompiledPluginAdapter(plugin *extismSDK.CompiledPlugin) CompiledPlugin {
	if plugin == nil {
		return nil
	}
	return &sdkCompiledPlugin{plugin: plugin}
}

func (a *sdkCompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (PluginInstance, error) {
	instance, err := a.plugin.Instance(ctx, config)
	if err != nil {
		return nil, err
	}
	return &sdkPluginInstance{instance: instance}, nil
}

func (a *sdkCompiledPlugin) Close(ctx context.Context) error {
	return a.plugin.Close(ctx)
}

type sdkPluginInstance struct {
	instance *extismSDK.Plugin
}

func (a *sdkPluginInstance) CallWithContext(
	ctx context.Context,
	name string,
	data []byte,
) (uint32, []byte, error) {
	return a.instance.CallWithContext(ctx, name, data)
}

func (a *sdkPluginInstance) FunctionExists(name string) bool {
	return a.instance.FunctionExists(name)
}

func (a *sdkPluginInstance) Close(ctx context.Context) error {
	return a.instance.Close(ctx)
}

// NewPluginInstanceConfig returns the instance configuration used for every check: a fresh
// wazero module config with no filesystem mounts, no environment and no arguments.
func NewPluginInstanceConfig() extismSDK.PluginInstanceConfig {
	return extismSDK.PluginInstanceConfig{
		ModuleConfig: wazero.NewModuleConfig(),
	}
}
