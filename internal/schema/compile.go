package schema

import (
	"fmt"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qres/internal/value"
)

// identPattern restricts table and field names to plain SQL identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CompileError reports an invalid model declaration.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileString compiles CUE source holding a top-level `model` struct.
func CompileString(src string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return Compile(v)
}

// Compile compiles the `model` struct of a CUE value into a Registry.
func Compile(root cue.Value) (*Registry, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modelsVal := root.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, &CompileError{Field: "model", Message: "no models declared", Pos: root.Pos()}
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var models []*Model
	for iter.Next() {
		m, err := CompileModel(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, &CompileError{Field: "model", Message: "no models declared", Pos: modelsVal.Pos()}
	}

	return NewRegistry(models...)
}

// CompileModel compiles one model struct.
func CompileModel(name string, v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	path := "model." + name
	m := &Model{Name: name}

	// table (required)
	table, err := requiredString(v, "table", path)
	if err != nil {
		return nil, err
	}
	if !identPattern.MatchString(table) {
		return nil, &CompileError{Field: path + ".table", Message: fmt.Sprintf("invalid table name %q", table), Pos: v.Pos()}
	}
	m.Table = table

	// id (optional, defaults to string)
	m.IDKind = value.KindString
	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		raw, err := idVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind, err := value.ParseIDKind(raw)
		if err != nil {
			return nil, &CompileError{Field: path + ".id", Message: err.Error(), Pos: idVal.Pos()}
		}
		m.IDKind = kind
	}

	if m.Fields, err = parseFields(v, "fields", path); err != nil {
		return nil, err
	}
	for _, f := range m.Fields {
		if f.Name == IDField {
			return nil, &CompileError{
				Field:   path + ".fields.id",
				Message: "id is implicit and cannot be declared as a field",
				Pos:     v.LookupPath(cue.ParsePath("fields.id")).Pos(),
			}
		}
	}

	if m.Lists, err = parseFields(v, "lists", path); err != nil {
		return nil, err
	}
	for _, l := range m.Lists {
		if _, clash := m.Field(l.Name); clash {
			return nil, &CompileError{
				Field:   path + ".lists." + l.Name,
				Message: "list field clashes with a scalar field",
			}
		}
	}

	if m.Relations, err = parseRelations(v, path); err != nil {
		return nil, err
	}
	for _, r := range m.Relations {
		if _, clash := m.Field(r.Name); clash {
			return nil, &CompileError{Field: path + ".relations." + r.Name, Message: "relation clashes with a scalar field"}
		}
		if _, clash := m.List(r.Name); clash {
			return nil, &CompileError{Field: path + ".relations." + r.Name, Message: "relation clashes with a list field"}
		}
	}

	return m, nil
}

// parseFields parses a `name: "type"` struct. Missing struct means no fields.
func parseFields(v cue.Value, key, path string) ([]Field, error) {
	fieldsVal := v.LookupPath(cue.ParsePath(key))
	if !fieldsVal.Exists() {
		return nil, nil
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []Field
	for iter.Next() {
		name := iter.Label()
		if !identPattern.MatchString(name) {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.%s.%s", path, key, name),
				Message: fmt.Sprintf("invalid field name %q", name),
				Pos:     iter.Value().Pos(),
			}
		}
		raw, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ft, err := parseFieldType(raw)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.%s.%s", path, key, name),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		fields = append(fields, Field{Name: name, Type: ft})
	}
	return fields, nil
}

// parseRelations parses the `relations` struct.
func parseRelations(v cue.Value, path string) ([]Relation, error) {
	relsVal := v.LookupPath(cue.ParsePath("relations"))
	if !relsVal.Exists() {
		return nil, nil
	}

	iter, err := relsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rels []Relation
	for iter.Next() {
		name := iter.Label()
		relPath := path + ".relations." + name
		rv := iter.Value()

		target, err := requiredString(rv, "model", relPath)
		if err != nil {
			return nil, err
		}
		fk, err := requiredString(rv, "foreign_key", relPath)
		if err != nil {
			return nil, err
		}

		rel := Relation{Name: name, Model: target, ForeignKey: fk}
		if manyVal := rv.LookupPath(cue.ParsePath("many")); manyVal.Exists() {
			many, err := manyVal.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
			rel.Many = many
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

func requiredString(v cue.Value, key, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(key))
	if !sv.Exists() {
		return "", &CompileError{Field: path + "." + key, Message: key + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Field: path + "." + key, Message: key + " cannot be empty", Pos: sv.Pos()}
	}
	return s, nil
}

func parseFieldType(s string) (FieldType, error) {
	for _, t := range ValidFieldTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q: must be one of %v", s, ValidFieldTypes)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
