package value

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the scalar values a record can hold.
// Implemented by Null, String, Int, Bool, List, Object, StringID, IntID and UUID.
type Value interface {
	value() // Sealed - only types in this package implement it
}

// Null is an absent column value.
type Null struct{}

func (Null) value() {}

// String is a text value.
type String string

func (String) value() {}

// Int is an integer value. Always int64.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// List is an ordered sequence of values.
type List []Value

func (List) value() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// Pair is a key-value pair for ordered Object construction in tests and
// serializers.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair.
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewObject builds an Object from pairs. Later pairs win on duplicate keys.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// NewList builds a List from values.
func NewList(vals ...Value) List {
	return List(vals)
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// SortedKeys returns keys in UTF-16 code unit order (RFC 8785).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by UTF-16 code units. Go's native string
// comparison orders by UTF-8 bytes, which differs outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
