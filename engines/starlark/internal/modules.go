package internal

import (
	"maps"

	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
)

// Module namespaces available to every submission, at compile time and at run time.
const (
	namespaceJSON = "json"
	namespaceMath = "math"
	namespaceTime = "time"
)

// StarlarkModules returns a copy of the Starlark universe plus sum, pow, divmod and round, and
// the json, math and time modules.
func StarlarkModules() starlarkLib.StringDict {
	universe := maps.Clone(starlarkLib.Universe)
	for name, fn := range pythonBuiltins {
		universe[name] = fn
	}

	universe[namespaceJSON] = starlarkJSON.Module
	universe[namespaceMath] = starlarkMath.Module
	universe[namespaceTime] = starlarkTime.Module

	return universe
}
