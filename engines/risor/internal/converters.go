package internal

import (
	"fmt"
	"math/big"

	"github.com/risor-io/risor/object"
	"github.com/robbyt/go-polygrade/platform/values"
)

// ToRisor converts a host value into a Risor object.
func ToRisor(v any) (object.Object, error) {
	n, err := values.Normalize(v)
	if err != nil {
		return nil, err
	}
	return toRisor(n)
}

func toRisor(v any) (object.Object, error) {
	switch val := v.(type) {
	case nil:
		return object.Nil, nil
	case bool:
		return object.NewBool(val), nil
	case int64:
		return object.NewInt(val), nil
	case *big.Int:
		return nil, fmt.Errorf("integer %s overflows a risor int", val.String())
	case float64:
		return object.NewFloat(val), nil
	case string:
		return object.NewString(val), nil
	case []any:
		items := make([]object.Object, len(val))
		for i, elem := range val {
			conv, err := toRisor(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			items[i] = conv
		}
		return object.NewList(items), nil
	case map[string]any:
		items := make(map[string]object.Object, len(val))
		for k, elem := range val {
			conv, err := toRisor(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert map value for key %q: %w", k, err)
			}
			items[k] = conv
		}
		return object.NewMap(items), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

// ToRisorArgs converts positional host arguments into Risor objects.
func ToRisorArgs(args []any) ([]object.Object, error) {
	out := make([]object.Object, len(args))
	for i, arg := range args {
		conv, err := ToRisor(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = conv
	}
	return out, nil
}

// FromRisor converts a Risor object into a host value.
func FromRisor(obj object.Object) (any, error) {
	if obj == nil || obj == object.Nil {
		return nil, nil
	}
	switch o := obj.(type) {
	case *object.Function, *object.Builtin, *object.Module:
		return nil, fmt.Errorf("unsupported Risor type %s", o.Type())
	case *object.Error:
		return nil, fmt.Errorf("error value returned: %s", o.Inspect())
	}
	return values.Normalize(obj.Interface())
}
