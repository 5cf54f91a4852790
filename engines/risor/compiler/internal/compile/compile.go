package compile

import (
	"context"
	"errors"
	"fmt"

	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	risorParser "github.com/risor-io/risor/parser"
)

// Error is a parse or compile failure, carrying the friendly source excerpt when available.
type Error struct {
	Msg     string
	Excerpt string
	err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", ErrCompileFailed, e.Msg)
}

func (e *Error) Unwrap() []error {
	return []error{ErrCompileFailed, e.err}
}

// Compile parses and compiles the script content into bytecode. globalNames must list every
// predeclared name the script may reference.
func Compile(scriptContent *string, globalNames []string) (*risorCompiler.Code, error) {
	if scriptContent == nil {
		return nil, ErrContentNil
	}

	ast, err := risorParser.Parse(context.Background(), *scriptContent)
	if err != nil {
		return nil, newError(err)
	}

	bc, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(globalNames))
	if err != nil {
		return nil, newError(err)
	}

	return bc, nil
}

func newError(err error) *Error {
	e := &Error{Msg: err.Error(), err: err}
	var friendlyErr risorErrors.FriendlyError
	if errors.As(err, &friendlyErr) {
		e.Excerpt = friendlyErr.FriendlyErrorMessage()
	}
	return e
}
