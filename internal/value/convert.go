package value

import (
	"fmt"
	"math"
)

// FromAny converts a decoded Go value (from YAML, JSON or a SQL driver) into
// a Value. nil becomes Null. Floats are accepted only when they hold an exact
// integer, since the value model has no float type.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case []byte:
		return String(string(val)), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(int64(val)), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-integer number %v is not supported", val)
		}
		return Int(int64(val)), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = conv
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToParam converts a scalar value into a database/sql parameter.
// Lists and objects have no parameter form.
func ToParam(v Value) (any, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Bool:
		return bool(val), nil
	case ID:
		return IDParam(val), nil
	case List:
		return nil, fmt.Errorf("list cannot be used as SQL parameter directly")
	case Object:
		return nil, fmt.Errorf("object cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
