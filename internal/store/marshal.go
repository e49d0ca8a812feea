package store

import (
	"fmt"

	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/value"
)

// marshalModel converts a model definition to canonical JSON TEXT for the
// catalog. Identical definitions always produce identical text, so a changed
// definition is detectable by string comparison.
func marshalModel(m *schema.Model) (string, error) {
	fields := make(value.Object, len(m.Fields))
	for _, f := range m.Fields {
		fields[f.Name] = value.String(f.Type)
	}
	lists := make(value.Object, len(m.Lists))
	for _, l := range m.Lists {
		lists[l.Name] = value.String(l.Type)
	}
	relations := make(value.Object, len(m.Relations))
	for _, r := range m.Relations {
		relations[r.Name] = value.NewObject(
			value.P("model", value.String(r.Model)),
			value.P("foreign_key", value.String(r.ForeignKey)),
			value.P("many", value.Bool(r.Many)),
		)
	}

	def := value.NewObject(
		value.P("table", value.String(m.Table)),
		value.P("id", value.String(m.IDKind)),
		value.P("fields", fields),
		value.P("lists", lists),
		value.P("relations", relations),
	)
	data, err := value.MarshalCanonical(def)
	if err != nil {
		return "", fmt.Errorf("marshal model %s: %w", m.Name, err)
	}
	return string(data), nil
}

// decodeScalar converts a driver value read from a column of the given type
// into a Value. SQL NULL becomes Null.
func decodeScalar(raw any, ft schema.FieldType) (value.Value, error) {
	if raw == nil {
		return value.Null{}, nil
	}
	switch ft {
	case schema.TypeString:
		switch v := raw.(type) {
		case string:
			return value.String(v), nil
		case []byte:
			return value.String(string(v)), nil
		}
	case schema.TypeInt:
		if n, ok := raw.(int64); ok {
			return value.Int(n), nil
		}
	case schema.TypeBool:
		switch v := raw.(type) {
		case int64:
			return value.Bool(v != 0), nil
		case bool:
			return value.Bool(v), nil
		}
	}
	return nil, fmt.Errorf("cannot decode %T as %s", raw, ft)
}

// decodeID converts a driver value into an identifier of the given kind.
func decodeID(raw any, kind value.IDKind) (value.ID, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("null %s id", kind)
	case int64:
		if kind == value.KindInt {
			return value.IntID(v), nil
		}
		return value.ParseID(kind, fmt.Sprint(v))
	case string:
		return value.ParseID(kind, v)
	case []byte:
		return value.ParseID(kind, string(v))
	default:
		return nil, fmt.Errorf("cannot decode %T as %s id", raw, kind)
	}
}
