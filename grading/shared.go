package grading

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robbyt/go-polygrade/engines"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/platform"
	"github.com/robbyt/go-polygrade/platform/host"
)

var (
	sharedMu    sync.Mutex
	sharedHosts = make(map[types.Type]*host.Host[platform.Engine])
)

// SharedHost returns the process-wide interpreter host for engineType. The handler is
// only used by the call that creates the host.
func SharedHost(engineType types.Type, handler slog.Handler) *host.Host[platform.Engine] {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if h, ok := sharedHosts[engineType]; ok {
		return h
	}
	h := NewHost(engineType, handler)
	sharedHosts[engineType] = h
	return h
}

// NewHost returns a host that lazily builds an engine of engineType.
func NewHost(engineType types.Type, handler slog.Handler) *host.Host[platform.Engine] {
	return host.New(handler, engineType.String(), func(context.Context) (platform.Engine, error) {
		return engines.New(handler, engineType)
	})
}
