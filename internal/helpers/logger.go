package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger returns the handler and a grouped logger for a grading component.
// A nil handler falls back to a text handler on stdout, grouped under the component name.
//
// Parameters:
//   - handler: The slog.Handler to use, or nil for defaults
//   - component: The component name (e.g., "starlark", "grading")
//   - groupName: Optional group within the component (e.g., "Runner")
func SetupLogger(
	handler slog.Handler,
	component string,
	groupName string,
) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, nil).WithGroup(component)
		slog.New(handler).Warn("Handler is nil, using the default logger configuration.")
	}

	if groupName == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(groupName))
}
