package interp

import (
	"fmt"
	"strconv"

	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// toInt coerces a dynamic value to int64. Booleans coerce to 0/1 so a bool
// field can serve as a switch discriminant.
func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
		return 0, fmt.Errorf("value %v is not an integer", n)
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
}

// toUint coerces a dynamic value to uint64, rejecting negatives.
func toUint(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("value %d is negative", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("value %d is negative", n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an unsigned integer", v, v)
	}
}

// toFloat coerces a dynamic value to float64.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not a float", v, v)
	}
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("value %v (%T) is not a bool", v, v)
	}
	return b, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("value %v (%T) is not a string", v, v)
	}
	return s, nil
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("value %v (%T) is not bytes", v, v)
	}
}

func toSlice(v any) ([]any, error) {
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("value %v (%T) is not an array", v, v)
	}
	return s, nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func bitSpecs(fields []syntax.BitField) []core.BitFieldSpec {
	specs := make([]core.BitFieldSpec, len(fields))
	for i, f := range fields {
		specs[i] = core.BitFieldSpec{Name: f.Name, Bits: f.Bits, Signed: f.Signed}
	}
	return specs
}
