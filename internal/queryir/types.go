package queryir

import "github.com/roach88/qres/internal/value"

// Query represents an abstract read query.
//
// Sealed: only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// Sealed: only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal
//   - In: field IN (literals)
//   - And: all predicates must hold
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads explicit columns from one table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter>
//
// Columns are read in order; the position of each column is the position of
// its value in every resulting record. Parent, when set, names a column read
// into the record's parent-link slot instead of its values.
type Select struct {
	From    string    // Table name
	Columns []string  // Explicit column list, never empty
	Parent  string    // Optional parent-link column
	Filter  Predicate // WHERE conditions (nil = no filter)
}

func (Select) queryNode() {}

// Equals represents a field-equals-literal predicate.
//
//	Equals{Field: "status", Value: value.String("active")}
//
// compiles to
//
//	status = ?
type Equals struct {
	Field string
	Value value.Value
}

func (Equals) predicateNode() {}

// In represents set membership. Relation resolution uses it to fetch the
// children of many parents in one read:
//
//	In{Field: "author_id", Values: []value.Value{value.IntID(1), value.IntID(2)}}
//
// An empty Values list matches nothing.
type In struct {
	Field  string
	Values []value.Value
}

func (In) predicateNode() {}

// And represents a conjunction. Empty Predicates is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conjoin combines predicates, dropping nils. Returns nil when nothing is
// left and the single predicate when only one is.
func Conjoin(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// EqualsAll builds a conjunction of Equals predicates from a field map.
// Fields are visited in sorted order so compiled SQL is deterministic.
func EqualsAll(fields value.Object) Predicate {
	preds := make([]Predicate, 0, len(fields))
	for _, k := range fields.SortedKeys() {
		preds = append(preds, Equals{Field: k, Value: fields[k]})
	}
	return Conjoin(preds...)
}
