package executor

import "github.com/roach88/qres/internal/queryir"

// ReadQuery is a top-level read.
//
// Sealed: only RecordQuery and ManyRecordsQuery implement it.
type ReadQuery interface {
	readQuery() // Marker method - seals interface to this package
}

// RecordQuery reads at most one record of Model matching Where.
// When several match, the one with the lowest id is returned.
type RecordQuery struct {
	Name      string // Result name; defaults to Model
	Model     string
	Where     queryir.Predicate
	Selection Selection
}

func (RecordQuery) readQuery() {}

// ManyRecordsQuery reads a page of Model records.
type ManyRecordsQuery struct {
	Name      string // Result name; defaults to Model
	Model     string
	Arguments queryir.Arguments
	Selection Selection
}

func (ManyRecordsQuery) readQuery() {}

// Selection lists what a read returns for each record.
type Selection struct {
	Scalars   []string
	Lists     []string
	Relations []RelationQuery
}

// RelationQuery reads the records related through Field.
//
// Arguments may filter and order a relation. Pagination is only allowed on a
// to-many relation whose parent is a single record: a page per parent would
// need one read per parent.
type RelationQuery struct {
	Field     string
	Name      string // Result name; defaults to Field
	Arguments queryir.Arguments
	Selection Selection
}

func (q RecordQuery) name() string {
	if q.Name != "" {
		return q.Name
	}
	return q.Model
}

func (q ManyRecordsQuery) name() string {
	if q.Name != "" {
		return q.Name
	}
	return q.Model
}

func (r RelationQuery) name() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Field
}
