package internal

import (
	"fmt"
	"math"
	"math/big"

	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxPowExpBits bounds integer exponents without a modulus; the result grows with the exponent.
const maxPowExpBits = 16

// pythonBuiltins are the Python builtins students reach for that the Starlark universe lacks.
var pythonBuiltins = map[string]*starlarkLib.Builtin{
	"sum":    starlarkLib.NewBuiltin("sum", sum),
	"pow":    starlarkLib.NewBuiltin("pow", pow),
	"divmod": starlarkLib.NewBuiltin("divmod", divmod),
	"round":  starlarkLib.NewBuiltin("round", round),
}

// sum(iterable, start=0)
func sum(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var iterable starlarkLib.Iterable
	var start starlarkLib.Value = starlarkLib.MakeInt(0)
	if err := starlarkLib.UnpackArgs(b.Name(), args, kwargs, "iterable", &iterable, "start?", &start); err != nil {
		return nil, err
	}
	if _, ok := start.(starlarkLib.String); ok {
		return nil, fmt.Errorf("%s: can't sum strings, use \"\".join(...)", b.Name())
	}

	iter := starlarkLib.Iterate(iterable)
	defer iter.Done()

	total := start
	var x starlarkLib.Value
	for iter.Next(&x) {
		next, err := starlarkLib.Binary(syntax.PLUS, total, x)
		if err != nil {
			return nil, err
		}
		total = next
	}
	return total, nil
}

// pow(base, exp, mod=None)
func pow(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var base, exp, mod starlarkLib.Value = nil, nil, starlarkLib.None
	if err := starlarkLib.UnpackArgs(b.Name(), args, kwargs, "base", &base, "exp", &exp, "mod?", &mod); err != nil {
		return nil, err
	}

	bi, baseInt := base.(starlarkLib.Int)
	ei, expInt := exp.(starlarkLib.Int)
	if baseInt && expInt && ei.Sign() >= 0 {
		var m *big.Int
		if mod != starlarkLib.None {
			mi, ok := mod.(starlarkLib.Int)
			if !ok {
				return nil, fmt.Errorf("%s: mod must be an int, got %s", b.Name(), mod.Type())
			}
			if mi.Sign() == 0 {
				return nil, fmt.Errorf("%s: mod cannot be 0", b.Name())
			}
			m = mi.BigInt()
		}
		if m == nil && ei.BigInt().BitLen() > maxPowExpBits && bi.BigInt().CmpAbs(big.NewInt(1)) > 0 {
			return nil, fmt.Errorf("%s: exponent too large", b.Name())
		}
		result := new(big.Int).Exp(bi.BigInt(), ei.BigInt(), m)
		if m != nil && result.Sign() != 0 && result.Sign() != m.Sign() {
			result.Add(result, m)
		}
		return starlarkLib.MakeBigInt(result), nil
	}

	if mod != starlarkLib.None {
		return nil, fmt.Errorf("%s: mod requires int base and non-negative int exp", b.Name())
	}
	bf, ok := starlarkLib.AsFloat(base)
	if !ok {
		return nil, fmt.Errorf("%s: base must be a number, got %s", b.Name(), base.Type())
	}
	ef, ok := starlarkLib.AsFloat(exp)
	if !ok {
		return nil, fmt.Errorf("%s: exp must be a number, got %s", b.Name(), exp.Type())
	}
	if bf == 0 && ef < 0 {
		return nil, fmt.Errorf("%s: zero cannot be raised to a negative power", b.Name())
	}
	return starlarkLib.Float(math.Pow(bf, ef)), nil
}

// divmod(a, b) returns (a // b, a % b).
func divmod(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var x, y starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y); err != nil {
		return nil, err
	}
	q, err := starlarkLib.Binary(syntax.SLASHSLASH, x, y)
	if err != nil {
		return nil, err
	}
	r, err := starlarkLib.Binary(syntax.PERCENT, x, y)
	if err != nil {
		return nil, err
	}
	return starlarkLib.Tuple{q, r}, nil
}

// round(number, ndigits=None) rounds half to even. Without ndigits the result is an int.
func round(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var number, ndigits starlarkLib.Value = nil, starlarkLib.None
	if err := starlarkLib.UnpackArgs(b.Name(), args, kwargs, "number", &number, "ndigits?", &ndigits); err != nil {
		return nil, err
	}

	if i, ok := number.(starlarkLib.Int); ok {
		if ndigits == starlarkLib.None {
			return i, nil
		}
		if _, ok := ndigits.(starlarkLib.Int); !ok {
			return nil, fmt.Errorf("%s: ndigits must be an int, got %s", b.Name(), ndigits.Type())
		}
		return i, nil
	}

	f, ok := number.(starlarkLib.Float)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want number", b.Name(), number.Type())
	}
	if ndigits == starlarkLib.None {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("%s: cannot convert %s to int", b.Name(), f.String())
		}
		return starlarkLib.NumberToInt(starlarkLib.Float(math.RoundToEven(float64(f))))
	}

	var digits int
	if err := starlarkLib.AsInt(ndigits, &digits); err != nil {
		return nil, fmt.Errorf("%s: ndigits: %w", b.Name(), err)
	}
	scale := math.Pow(10, float64(digits))
	return starlarkLib.Float(math.RoundToEven(float64(f)*scale) / scale), nil
}
