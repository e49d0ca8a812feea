package value

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ID is a sealed interface over record identifier values.
//
// Every ID is also a Value; the identifier kinds are the "is this an
// identifier" discriminant of the value model. All ID types are comparable,
// so IDs can be used directly as map keys.
type ID interface {
	Value
	id() // Sealed - only StringID, IntID and UUID implement it
	Kind() IDKind
	String() string
}

// IDKind names the storage representation of an identifier.
type IDKind string

const (
	KindString IDKind = "string"
	KindInt    IDKind = "int"
	KindUUID   IDKind = "uuid"
)

// ValidIDKinds lists every supported identifier kind.
var ValidIDKinds = []IDKind{KindString, KindInt, KindUUID}

// ParseIDKind validates an identifier kind name.
func ParseIDKind(s string) (IDKind, error) {
	for _, k := range ValidIDKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown id kind %q: must be one of %v", s, ValidIDKinds)
}

// StringID is an opaque text identifier (cuid, slug, external key).
type StringID string

func (StringID) value()           {}
func (StringID) id()              {}
func (StringID) Kind() IDKind     { return KindString }
func (s StringID) String() string { return string(s) }

// IntID is an integer identifier (autoincrement keys).
type IntID int64

func (IntID) value()           {}
func (IntID) id()              {}
func (IntID) Kind() IDKind     { return KindInt }
func (n IntID) String() string { return strconv.FormatInt(int64(n), 10) }

// UUID is a UUID identifier.
type UUID uuid.UUID

func (UUID) value()           {}
func (UUID) id()              {}
func (UUID) Kind() IDKind     { return KindUUID }
func (u UUID) String() string { return uuid.UUID(u).String() }

// NewUUID mints a time-ordered UUIDv7 identifier.
func NewUUID() UUID {
	return UUID(uuid.Must(uuid.NewV7()))
}

// IsID reports whether v carries the identifier discriminant.
func IsID(v Value) (ID, bool) {
	id, ok := v.(ID)
	return id, ok
}

// ParseID converts the textual form of an identifier into an ID of the given
// kind.
func ParseID(kind IDKind, raw string) (ID, error) {
	switch kind {
	case KindString:
		return StringID(raw), nil
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int id %q: %w", raw, err)
		}
		return IntID(n), nil
	case KindUUID:
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse uuid id %q: %w", raw, err)
		}
		return UUID(u), nil
	default:
		return nil, fmt.Errorf("unknown id kind %q", kind)
	}
}

// IDParam converts an identifier to its SQL parameter form.
// UUIDs are stored as their canonical text form.
func IDParam(id ID) any {
	switch v := id.(type) {
	case IntID:
		return int64(v)
	default:
		return id.String()
	}
}
