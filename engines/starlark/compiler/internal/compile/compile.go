package compile

import (
	"fmt"
	"strings"

	"github.com/robbyt/go-polygrade/engines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FileOptions returns the dialect submissions are parsed with. It is closer to Python than
// the Starlark default: top-level loops, while, sets, recursion and reassignment are allowed.
func FileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
}

// Compile parses and compiles the script content into a Starlark program. The returned
// syntax tree is used to recover the order in which top-level names are bound.
func Compile(
	filename string,
	scriptBodyBytes []byte,
	opts *syntax.FileOptions,
	globals starlarkLib.StringDict,
) (*syntax.File, *starlarkLib.Program, error) {
	if scriptBodyBytes == nil {
		return nil, nil, ErrContentNil
	}

	if opts == nil {
		opts = FileOptions()
	}

	predeclared := internal.StarlarkModules()
	for k, v := range globals {
		predeclared[k] = v
	}

	f, err := opts.Parse(filename, scriptBodyBytes, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	return f, prog, nil
}

// BindingOrder lists the top-level names assigned by the file, in source order, including
// names bound inside top-level if/for/while blocks. Duplicates keep their first position
// and names starting with an underscore are skipped.
func BindingOrder(f *syntax.File) []string {
	if f == nil {
		return nil
	}

	seen := make(map[string]struct{})
	order := make([]string, 0, len(f.Stmts))
	add := func(name string) {
		if strings.HasPrefix(name, "_") {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	var walk func(stmts []syntax.Stmt)
	walk = func(stmts []syntax.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *syntax.DefStmt:
				add(s.Name.Name)
			case *syntax.AssignStmt:
				if id, ok := s.LHS.(*syntax.Ident); ok && s.Op == syntax.EQ {
					add(id.Name)
				}
			case *syntax.IfStmt:
				walk(s.True)
				walk(s.False)
			case *syntax.ForStmt:
				walk(s.Body)
			case *syntax.WhileStmt:
				walk(s.Body)
			}
		}
	}
	walk(f.Stmts)

	return order
}
