package grading

import (
	"github.com/robbyt/go-polygrade/platform"
	"github.com/robbyt/go-polygrade/platform/values"
)

// AdaptArguments turns one test case input into the positional arguments for a function
// named name with signature sig.
//
//   - a function without parameters is called with none, whatever the input
//   - a non-sequence input is passed as the only argument
//   - a sequence is passed whole to a one-parameter function, and unpacked in order
//     for a function declaring more parameters, which must match its length
//
// A variadic function without fixed parameters receives a sequence unpacked, and a
// variadic function with fixed parameters accepts sequences at least that long.
func AdaptArguments(name string, sig platform.Signature, input any) ([]any, error) {
	p := sig.Params
	seq, isSeq := values.AsSequence(input)

	if p == 0 {
		if !sig.Variadic {
			return nil, nil
		}
		switch {
		case isSeq:
			return seq, nil
		case input == nil:
			return nil, nil
		default:
			return []any{input}, nil
		}
	}

	if !isSeq {
		if p > 1 {
			return nil, &ArityMismatchError{Function: name, Expected: p, Got: 1}
		}
		return []any{input}, nil
	}

	l := len(seq)
	switch {
	case l == 0:
		return nil, &ArityMismatchError{Function: name, Expected: p, Got: 0}
	case p == 1:
		return []any{input}, nil
	case l == p, sig.Variadic && l > p:
		return seq, nil
	default:
		return nil, &ArityMismatchError{Function: name, Expected: p, Got: l}
	}
}
