package values

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
)

// ErrNotRepresentable is returned for values with no canonical form, such as NaN.
var ErrNotRepresentable = errors.New("value has no canonical form")

// Canonical returns a deterministic JSON encoding of v. Map keys are sorted, and numbers
// are written so that 3 and 3.0 encode identically.
func Canonical(v any) (string, error) {
	n, err := Normalize(v)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writeCanonical(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCanonical(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case *big.Int:
		b.WriteString(val.String())
	case float64:
		s, err := formatFloat(val)
		if err != nil {
			return err
		}
		b.WriteString(s)
	case string:
		enc, err := json.Marshal(val)
		if err != nil {
			return err
		}
		b.Write(enc)
	case []any:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(enc)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	return nil
}

func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrNotRepresentable, f)
	}
	// integral floats print as the exact integer they hold, matching int and big int forms
	if f == math.Trunc(f) {
		i, _ := big.NewFloat(f).Int(nil)
		return i.String(), nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// StrictEqual compares two scalars by type and value. Numbers form a single type and
// compare by mathematical value; nothing else is coerced. NaN never equals anything.
// Composite values are never strictly equal; compare them with Canonical.
func StrictEqual(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}

	switch x := na.(type) {
	case nil:
		return nb == nil
	case bool:
		y, ok := nb.(bool)
		return ok && x == y
	case string:
		y, ok := nb.(string)
		return ok && x == y
	case int64, *big.Int, float64:
		return numbersEqual(x, nb)
	}
	return false
}

func numbersEqual(a, b any) bool {
	fa, ok := toBigFloat(a)
	if !ok {
		return false
	}
	fb, ok := toBigFloat(b)
	if !ok {
		return false
	}
	return fa.Cmp(fb) == 0
}

func toBigFloat(v any) (*big.Float, bool) {
	switch n := v.(type) {
	case int64:
		return new(big.Float).SetInt64(n), true
	case *big.Int:
		return new(big.Float).SetInt(n), true
	case float64:
		if math.IsNaN(n) {
			return nil, false
		}
		return big.NewFloat(n), true
	}
	return nil, false
}
