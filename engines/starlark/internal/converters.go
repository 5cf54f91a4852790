package internal

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/robbyt/go-polygrade/platform/values"
	starlarkLib "go.starlark.net/starlark"
)

// FromStarlark converts a Starlark value into a host value.
func FromStarlark(v starlarkLib.Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		return v.BigInt(), nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case *starlarkLib.List:
		return fromIndexable(v)
	case starlarkLib.Tuple:
		return fromIndexable(v)
	case *starlarkLib.Set:
		list := make([]any, 0, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var elem starlarkLib.Value
		for iter.Next(&elem) {
			conv, err := FromStarlark(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert set element: %w", err)
			}
			list = append(list, conv)
		}
		return list, nil
	case *starlarkLib.Dict:
		dict := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			k, val := item[0], item[1]
			key, ok := k.(starlarkLib.String)
			if !ok {
				key = starlarkLib.String(k.String())
			}
			conv, err := FromStarlark(val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value for key %s: %w", k.String(), err)
			}
			dict[string(key)] = conv
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type %s", v.Type())
	}
}

func fromIndexable(v starlarkLib.Indexable) ([]any, error) {
	list := make([]any, 0, v.Len())
	for i := range v.Len() {
		elem, err := FromStarlark(v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("failed to convert element %d: %w", i, err)
		}
		list = append(list, elem)
	}
	return list, nil
}

// ToStarlark converts a host value into a Starlark value. Map keys are inserted in sorted
// order so that dict iteration inside the script is deterministic.
func ToStarlark(v any) (starlarkLib.Value, error) {
	n, err := values.Normalize(v)
	if err != nil {
		return nil, err
	}
	return toStarlark(n)
}

func toStarlark(v any) (starlarkLib.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlarkLib.None, nil
	case bool:
		return starlarkLib.Bool(val), nil
	case int64:
		return starlarkLib.MakeInt64(val), nil
	case *big.Int:
		return starlarkLib.MakeBigInt(val), nil
	case float64:
		return starlarkLib.Float(val), nil
	case string:
		return starlarkLib.String(val), nil
	case []any:
		elements := make([]starlarkLib.Value, len(val))
		for i, elem := range val {
			conv, err := toStarlark(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			elements[i] = conv
		}
		return starlarkLib.NewList(elements), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		dict := starlarkLib.NewDict(len(val))
		for _, k := range keys {
			conv, err := toStarlark(val[k])
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value for key %q: %w", k, err)
			}
			if err := dict.SetKey(starlarkLib.String(k), conv); err != nil {
				return nil, fmt.Errorf("failed to set dict key %q: %w", k, err)
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

// ToStarlarkTuple converts positional host arguments into a Starlark tuple.
func ToStarlarkTuple(args []any) (starlarkLib.Tuple, error) {
	tuple := make(starlarkLib.Tuple, len(args))
	for i, arg := range args {
		conv, err := ToStarlark(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		tuple[i] = conv
	}
	return tuple, nil
}
