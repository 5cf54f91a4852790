// Package engines creates submission engines by type.
package engines

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polygrade/engines/risor"
	"github.com/robbyt/go-polygrade/engines/starlark"
	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/platform"
)

// New returns a freshly constructed engine of the given type.
func New(handler slog.Handler, engineType types.Type) (platform.Engine, error) {
	var (
		engine platform.Engine
		err    error
	)
	switch engineType {
	case types.Starlark:
		engine, err = starlark.New(handler)
	case types.Risor:
		engine, err = risor.New(handler)
	default:
		return nil, fmt.Errorf("unsupported engine type: %q", engineType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s engine: %w", engineType, err)
	}
	return engine, nil
}
