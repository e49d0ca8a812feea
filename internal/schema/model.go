// Package schema describes the data models reads run against: tables, scalar
// fields, scalar-list fields and relations. Models are declared in CUE:
//
//	model: User: {
//		table: "users"
//		id:    "uuid"
//		fields: {
//			name:  "string"
//			email: "string"
//		}
//		lists: tags: "string"
//		relations: posts: {
//			model:       "Post"
//			foreign_key: "author_id"
//			many:        true
//		}
//	}
//
// Every model has an identifier column named "id". A relation is always
// stored on the related model: foreign_key names a scalar field of the
// related model that holds the parent's id.
package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/qres/internal/value"
)

// IDField is the identifier column every model has.
const IDField = "id"

// FieldType is the storage type of a scalar or list field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeBool   FieldType = "bool"
)

// ValidFieldTypes lists every supported scalar type.
var ValidFieldTypes = []FieldType{TypeString, TypeInt, TypeBool}

// Field is a scalar or list field of a model.
type Field struct {
	Name string
	Type FieldType
}

// Relation links a model to records of another model.
type Relation struct {
	Name       string
	Model      string // Related model name
	ForeignKey string // Field on the related model holding this model's id
	Many       bool
}

// Model is one compiled model.
type Model struct {
	Name      string
	Table     string
	IDKind    value.IDKind
	Fields    []Field // Declaration order, id excluded
	Lists     []Field
	Relations []Relation
}

// Field looks up a scalar field by name. The id field is reported with the
// storage type of its kind.
func (m *Model) Field(name string) (Field, bool) {
	if name == IDField {
		return Field{Name: IDField, Type: IDStorageType(m.IDKind)}, true
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// List looks up a scalar-list field by name.
func (m *Model) List(name string) (Field, bool) {
	for _, f := range m.Lists {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relation looks up a relation by name.
func (m *Model) Relation(name string) (Relation, bool) {
	for _, r := range m.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// ScalarNames returns "id" followed by every declared scalar field.
func (m *Model) ScalarNames() []string {
	names := make([]string, 0, len(m.Fields)+1)
	names = append(names, IDField)
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	return names
}

// ListTable returns the table holding a scalar-list field's values.
func (m *Model) ListTable(list string) string {
	return m.Table + "_" + list
}

// IDStorageType returns the scalar type an id kind is stored as.
func IDStorageType(kind value.IDKind) FieldType {
	if kind == value.KindInt {
		return TypeInt
	}
	return TypeString
}

// Registry holds compiled models by name.
type Registry struct {
	models map[string]*Model
}

// NewRegistry builds a registry and checks cross-model references.
func NewRegistry(models ...*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if _, dup := r.models[m.Name]; dup {
			return nil, &CompileError{Field: "model." + m.Name, Message: "duplicate model"}
		}
		r.models[m.Name] = m
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns every model sorted by name.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// validate checks that relation targets exist and that each foreign key is a
// scalar field on the target whose type can hold the parent's id.
func (r *Registry) validate() error {
	tables := make(map[string]string)
	for _, m := range r.Models() {
		if other, dup := tables[m.Table]; dup {
			return &CompileError{
				Field:   "model." + m.Name + ".table",
				Message: fmt.Sprintf("table %q already used by model %s", m.Table, other),
			}
		}
		tables[m.Table] = m.Name

		for _, rel := range m.Relations {
			path := fmt.Sprintf("model.%s.relations.%s", m.Name, rel.Name)
			target, ok := r.models[rel.Model]
			if !ok {
				return &CompileError{Field: path, Message: fmt.Sprintf("unknown model %q", rel.Model)}
			}
			fk, ok := target.Field(rel.ForeignKey)
			if !ok || fk.Name == IDField {
				return &CompileError{
					Field:   path,
					Message: fmt.Sprintf("foreign key %q is not a field of %s", rel.ForeignKey, target.Name),
				}
			}
			if want := IDStorageType(m.IDKind); fk.Type != want {
				return &CompileError{
					Field: path,
					Message: fmt.Sprintf("foreign key %s.%s is %s, %s ids need %s",
						target.Name, fk.Name, fk.Type, m.IDKind, want),
				}
			}
		}
	}
	return nil
}
