package compiler

import (
	risorCompiler "github.com/risor-io/risor/compiler"
	"github.com/robbyt/go-polygrade/internal/helpers"
)

// Executable is compiled Risor bytecode plus the source it came from.
type Executable struct {
	source string
	id     string
	code   *risorCompiler.Code
}

func newExecutable(source string, code *risorCompiler.Code) *Executable {
	if code == nil {
		return nil
	}
	return &Executable{
		source: source,
		id:     helpers.ShortHash(source),
		code:   code,
	}
}

func (e *Executable) ID() string {
	return e.id
}

func (e *Executable) Source() string {
	return e.source
}

// Code returns the bytecode.
func (e *Executable) Code() *risorCompiler.Code {
	return e.code
}
