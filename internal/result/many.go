package result

import (
	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/value"
)

// ManyReadQueryResults is the result of a read expected to match a
// collection of records.
//
// The zero value is not usable; NewManyReadQueryResults is the only way to
// obtain one, so fields, records and query arguments are always set together.
type ManyReadQueryResults struct {
	name           string
	fields         []string
	scalars        record.ManyRecords
	nested         []ReadQueryResult
	lists          []record.ListResult
	queryArguments queryir.Arguments
	selectedFields queryir.SelectedFields
}

// NewManyReadQueryResults builds a collection result. Every record must carry
// exactly len(fields) values, and the collection's field names, if set, must
// equal fields; otherwise a ShapeError naming the first offending record is
// returned.
//
// Construction does not trim records beyond the requested page.
func NewManyReadQueryResults(
	name string,
	fields []string,
	scalars record.ManyRecords,
	nested []ReadQueryResult,
	lists []record.ListResult,
	args queryir.Arguments,
	selected queryir.SelectedFields,
) (*ManyReadQueryResults, error) {
	for i, rec := range scalars.Records {
		if err := checkShape(name, fields, scalars.FieldNames, i, rec); err != nil {
			return nil, err
		}
	}

	return &ManyReadQueryResults{
		name:           name,
		fields:         fields,
		scalars:        scalars,
		nested:         nested,
		lists:          lists,
		queryArguments: args,
		selectedFields: selected,
	}, nil
}

// Name returns the logical query name.
func (r *ManyReadQueryResults) Name() string { return r.name }

// Fields returns the scalar field names, positionally aligned with every
// record's values. Callers must not modify the returned slice.
func (r *ManyReadQueryResults) Fields() []string { return r.fields }

// Scalars returns the record collection. It may hold zero records.
func (r *ManyReadQueryResults) Scalars() record.ManyRecords { return r.scalars }

// Len returns the number of records.
func (r *ManyReadQueryResults) Len() int { return r.scalars.Len() }

// Nested returns the relation results, one per requested relation.
func (r *ManyReadQueryResults) Nested() []ReadQueryResult { return r.nested }

// Lists returns the scalar-list results, one per requested list field.
func (r *ManyReadQueryResults) Lists() []record.ListResult { return r.lists }

// QueryArguments returns the filter, ordering and pagination parameters the
// collection was read with.
func (r *ManyReadQueryResults) QueryArguments() queryir.Arguments { return r.queryArguments }

// SelectedFields returns the explicit/implicit field descriptor.
func (r *ManyReadQueryResults) SelectedFields() queryir.SelectedFields { return r.selectedFields }

// FindIDs returns the identifier of every record, in record order.
//
// All or nothing: absent when fields has no "id", and absent when any single
// record lacks an identifier-typed value at that position. A partial list
// would silently drop records from an id-keyed follow-up read.
func (r *ManyReadQueryResults) FindIDs() ([]value.ID, bool) {
	pos := record.FieldIndex(r.fields, IDField)
	if pos < 0 {
		return nil, false
	}

	ids := make([]value.ID, 0, len(r.scalars.Records))
	for _, rec := range r.scalars.Records {
		v, ok := rec.Get(pos)
		if !ok {
			return nil, false
		}
		id, ok := value.IsID(v)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
