// Package types names the script engines a grader can run submissions on.
package types

import "fmt"

// Type identifies a script engine.
type Type string

const (
	// Starlark runs Python-dialect submissions: https://github.com/google/starlark-go
	Starlark Type = "starlark"

	// Risor runs Risor submissions: https://github.com/risor-io/risor
	Risor Type = "risor"

	// Extism runs WASM checker plugins: https://extism.org/
	Extism Type = "extism"
)

func (t Type) String() string {
	return string(t)
}

// SubmissionEngines lists the engines that can host a submission.
func SubmissionEngines() []Type {
	return []Type{Starlark, Risor}
}

// Parse converts a configuration string into a submission engine Type.
func Parse(s string) (Type, error) {
	for _, t := range SubmissionEngines() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported engine type: %q", s)
}
