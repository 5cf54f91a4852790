package platform

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoFunctionDefined is returned when a submission binds no callable at top level.
var ErrNoFunctionDefined = errors.New("no function defined in submission")

// Kinds of ScriptError, named after the exception classes students see in Python.
const (
	KindSyntaxError       = "SyntaxError"
	KindNoFunctionDefined = "NoFunctionDefinedError"
	KindArityMismatch     = "ArityMismatchError"
	KindZeroDivisionError = "ZeroDivisionError"
	KindIndexError        = "IndexError"
	KindKeyError          = "KeyError"
	KindTypeError         = "TypeError"
	KindValueError        = "ValueError"
	KindTimeoutError      = "TimeoutError"
	KindRuntimeError      = "RuntimeError"
	KindInternalError     = "InternalError"
	KindConversionError   = "ConversionError"
)

// ScriptError is a fault raised while compiling or running user code.
type ScriptError struct {
	Kind      string
	Message   string
	Traceback string
	Err       error
}

// NewScriptError builds a ScriptError, classifying the kind from the message when kind is empty.
func NewScriptError(kind, message, traceback string, cause error) *ScriptError {
	if kind == "" {
		kind = ClassifyMessage(message)
	}
	return &ScriptError{
		Kind:      kind,
		Message:   message,
		Traceback: traceback,
		Err:       cause,
	}
}

// NoFunctionDefined returns the ScriptError reported when a submission has no callable.
func NoFunctionDefined() *ScriptError {
	return &ScriptError{
		Kind:    KindNoFunctionDefined,
		Message: "submission must define a function",
		Err:     ErrNoFunctionDefined,
	}
}

func (e *ScriptError) Error() string {
	return e.Kind + ": " + e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Detail joins the kind, message and traceback with newlines, for display to the student.
func (e *ScriptError) Detail() string {
	if e.Traceback == "" {
		return e.Error()
	}
	return e.Error() + "\n" + strings.TrimRight(e.Traceback, "\n")
}

// kindPatterns match the fixed wording interpreters use for their own errors. They run
// against the message with quoted literals removed, in order; the first match wins.
var kindPatterns = []struct {
	pattern *regexp.Regexp
	kind    string
}{
	{regexp.MustCompile(`^starlark computation cancelled`), KindTimeoutError},
	{regexp.MustCompile(`(^|: )context (deadline exceeded|canceled)$`), KindTimeoutError},
	{regexp.MustCompile(`^((floored|integer|float) )?(division|modulo) by zero`), KindZeroDivisionError},
	{regexp.MustCompile(`^value error: ((floored|integer) )?division by zero`), KindZeroDivisionError},
	{regexp.MustCompile(`^(\w+ )?index -?\d+ out of range`), KindIndexError},
	{regexp.MustCompile(`^index error:`), KindIndexError},
	{regexp.MustCompile(`^key\b.*\bnot in dict`), KindKeyError},
	{regexp.MustCompile(`^key error:`), KindKeyError},
	{regexp.MustCompile(`^(type|args) error:`), KindTypeError},
	{regexp.MustCompile(`^unknown (binary|unary) op`), KindTypeError},
	{regexp.MustCompile(`^function \w+ (missing|accepts|got|takes)\b`), KindTypeError},
	{regexp.MustCompile(`^invalid call of non-function`), KindTypeError},
	{regexp.MustCompile(`^\S+ has no \.\w+ field or method`), KindTypeError},
	{regexp.MustCompile(`^\w+: (value of type|got \d+ arguments?|missing argument|unexpected keyword|for parameter)`), KindTypeError},
	{regexp.MustCompile(`^(\w+: )?invalid literal`), KindValueError},
	{regexp.MustCompile(`^value error:`), KindValueError},
}

var quoted = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)

// ClassifyMessage derives an error kind from an interpreter error message. Text raised by the
// submission itself, through fail() or a quoted value, never selects a kind.
func ClassifyMessage(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	if strings.HasPrefix(lower, "fail:") {
		return KindRuntimeError
	}
	lower = quoted.ReplaceAllString(lower, `""`)
	for _, p := range kindPatterns {
		if p.pattern.MatchString(lower) {
			return p.kind
		}
	}
	return KindRuntimeError
}
