package result

import (
	"slices"

	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/value"
)

// SingleReadQueryResult is the result of a read expected to match at most one
// record.
type SingleReadQueryResult struct {
	name   string
	fields []string

	// nil means no record matched
	scalars *record.SingleRecord

	nested         []ReadQueryResult
	lists          []record.ListResult
	selectedFields queryir.SelectedFields
}

// NewSingleReadQueryResult builds a single result. When scalars is present,
// its value sequence must have exactly len(fields) values, and its field
// names, if set, must equal fields; otherwise a ShapeError is returned.
func NewSingleReadQueryResult(
	name string,
	fields []string,
	scalars *record.SingleRecord,
	nested []ReadQueryResult,
	lists []record.ListResult,
	selected queryir.SelectedFields,
) (*SingleReadQueryResult, error) {
	if scalars != nil {
		if err := checkShape(name, fields, scalars.FieldNames, 0, scalars.Record); err != nil {
			return nil, err
		}
	}

	return &SingleReadQueryResult{
		name:           name,
		fields:         fields,
		scalars:        scalars,
		nested:         nested,
		lists:          lists,
		selectedFields: selected,
	}, nil
}

// Name returns the logical query name.
func (r *SingleReadQueryResult) Name() string { return r.name }

// Fields returns the scalar field names, positionally aligned with the
// record's values. Callers must not modify the returned slice.
func (r *SingleReadQueryResult) Fields() []string { return r.fields }

// Scalars returns the matched record, or nil when nothing matched.
func (r *SingleReadQueryResult) Scalars() *record.SingleRecord { return r.scalars }

// Found reports whether a record matched.
func (r *SingleReadQueryResult) Found() bool { return r.scalars != nil }

// Nested returns the relation results, one per requested relation.
func (r *SingleReadQueryResult) Nested() []ReadQueryResult { return r.nested }

// Lists returns the scalar-list results, one per requested list field.
func (r *SingleReadQueryResult) Lists() []record.ListResult { return r.lists }

// SelectedFields returns the explicit/implicit field descriptor.
func (r *SingleReadQueryResult) SelectedFields() queryir.SelectedFields { return r.selectedFields }

// ParentID returns the identifier of the parent record this result was
// resolved under. It reads the record's parent-link slot, not its values.
// Absent when there is no record or the record carries no link.
func (r *SingleReadQueryResult) ParentID() (value.ID, bool) {
	if r.scalars == nil || r.scalars.Record.ParentID == nil {
		return nil, false
	}
	return r.scalars.Record.ParentID, true
}

// FindID returns the record's identifier: the value at the position of the
// first field named "id", provided it carries the identifier discriminant.
// Absent when there is no "id" field, no record, or the value there is not an
// identifier.
func (r *SingleReadQueryResult) FindID() (value.ID, bool) {
	pos := record.FieldIndex(r.fields, IDField)
	if pos < 0 || r.scalars == nil {
		return nil, false
	}

	v, ok := r.scalars.Record.Get(pos)
	if !ok {
		return nil, false
	}
	return value.IsID(v)
}

// checkShape validates one record against the result's field names.
func checkShape(name string, fields, fieldNames []string, idx int, rec record.Record) error {
	if fieldNames != nil && !slices.Equal(fields, fieldNames) {
		return &ShapeError{
			Name:   name,
			Record: idx,
			Fields: len(fields),
			Values: -1,
			Detail: "record field names do not match result fields",
		}
	}
	if len(rec.Values) != len(fields) {
		return &ShapeError{
			Name:   name,
			Record: idx,
			Fields: len(fields),
			Values: len(rec.Values),
		}
	}
	return nil
}
