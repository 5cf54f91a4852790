package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterfaceImplementation(t *testing.T) {
	var _ CompiledPlugin = (*sdkCompiledPlugin)(nil)
	var _ PluginInstance = (*sdkPluginInstance)(nil)
}

func TestNewCompiledPluginAdapter_Nil(t *testing.T) {
	assert.Nil(t, NewCompiledPluginAdapter(nil))
}

func TestNewPluginInstanceConfig(t *testing.T) {
	config := NewPluginInstanceConfig()
	require.NotNil(t, config.ModuleConfig)
}
