// Package queryir provides the abstract read-query representation shared by
// the executor, the SQL compiler and read results.
//
// # Sealed Interfaces
//
// Query and Predicate are sealed with the marker method pattern. Only types in
// this package implement them, so backend compilers can switch exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // Handle select
//	default:
//	    // Impossible - compiler knows all Query types
//	}
//
// # Arguments
//
// Arguments carries the filter, order and pagination parameters of a
// collection read. Results keep the Arguments they were produced with so later
// stages can reason about the page they hold.
//
// # Selection
//
// SelectedFields records which fields the caller asked for and which were
// pulled in implicitly (an id needed to resolve a relation, for example).
// Response assembly uses it to drop implicit fields.
package queryir
