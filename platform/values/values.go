// Package values defines the host-side value model shared by the engines and the grader.
//
// Every value crossing the interpreter boundary is normalized to one of:
// nil, bool, int64, *big.Int, float64, string, []any or map[string]any.
package values

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
)

// ErrUnsupportedType is returned when a value has no host representation.
var ErrUnsupportedType = errors.New("unsupported value type")

// Normalize converts v into the canonical host representation. Slices and arrays of any
// element type become []any, maps with scalar keys become map[string]any, and all numeric
// kinds collapse into int64, *big.Int or float64.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint:
		return normalizeUint(uint64(val)), nil
	case uint64:
		return normalizeUint(val), nil
	case float32:
		return float64(val), nil
	case *big.Int:
		if val == nil {
			return nil, nil
		}
		if val.IsInt64() {
			return val.Int64(), nil
		}
		return val, nil
	case json.Number:
		return normalizeJSONNumber(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return new(big.Int).SetUint64(u)
}

func normalizeJSONNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	if b, ok := new(big.Int).SetString(n.String(), 10); ok {
		return b, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", ErrUnsupportedType, n.String())
	}
	return f, nil
}

func normalizeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := mapKey(iter.Key())
			if err != nil {
				return nil, err
			}
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return normalizeUint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	if !rv.IsValid() {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

// mapKey renders a scalar map key as a string; YAML documents can produce non-string keys.
func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(k.Interface()), nil
	}
	return "", fmt.Errorf("%w: map key of type %s", ErrUnsupportedType, k.Type())
}

// AsSequence reports whether v is an ordered sequence and returns its elements.
// Strings are not sequences.
func AsSequence(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil, string:
		return nil, false
	case []any:
		return val, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	n, err := Normalize(v)
	if err != nil {
		return nil, false
	}
	seq, ok := n.([]any)
	return seq, ok
}

// IsMapping reports whether v is an unordered key/value structure.
func IsMapping(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Map
}
