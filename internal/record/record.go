// Package record holds the raw scalar output of a read: field names plus one
// or many positionally aligned value sequences, and the scalar-list values
// fetched alongside them.
package record

import (
	"slices"

	"github.com/roach88/qres/internal/value"
)

// Record is one row of scalar values.
//
// Values are positionally aligned with the field names of the container that
// holds the record. ParentID links a record fetched through a relation back
// to the parent record it was resolved under; nil for top-level records.
type Record struct {
	Values   []value.Value
	ParentID value.ID
}

// NewRecord creates a top-level record.
func NewRecord(values ...value.Value) Record {
	return Record{Values: values}
}

// WithParent returns a copy of r linked to the given parent.
func (r Record) WithParent(parent value.ID) Record {
	r.ParentID = parent
	return r
}

// Get returns the value at position i, or false when i is out of range.
func (r Record) Get(i int) (value.Value, bool) {
	if i < 0 || i >= len(r.Values) {
		return nil, false
	}
	return r.Values[i], true
}

// SingleRecord is a record together with the field names describing it.
type SingleRecord struct {
	Record     Record
	FieldNames []string
}

// ManyRecords is a collection of records sharing one field-name sequence.
// The collection may be empty.
type ManyRecords struct {
	Records    []Record
	FieldNames []string
}

// NewManyRecords creates a collection over the given field names.
func NewManyRecords(fieldNames []string, records ...Record) ManyRecords {
	if records == nil {
		records = []Record{}
	}
	return ManyRecords{Records: records, FieldNames: fieldNames}
}

// Len returns the number of records.
func (m ManyRecords) Len() int {
	return len(m.Records)
}

// Reverse reverses record order in place. Used after reading a backwards
// page (`last`), which is fetched in descending order.
func (m ManyRecords) Reverse() {
	slices.Reverse(m.Records)
}

// Single returns the first record as a SingleRecord, or nil when the
// collection is empty.
func (m ManyRecords) Single() *SingleRecord {
	if len(m.Records) == 0 {
		return nil
	}
	return &SingleRecord{Record: m.Records[0], FieldNames: m.FieldNames}
}

// FieldIndex returns the position of the first field named name, or -1.
// Comparison is exact and case-sensitive.
func FieldIndex(fields []string, name string) int {
	return slices.Index(fields, name)
}
