package queryir

import "github.com/roach88/qres/internal/value"

// OrderBy orders a collection read by one field.
type OrderBy struct {
	Field      string
	Descending bool
}

// Arguments holds the filter, ordering and pagination parameters of a
// collection read.
//
// First and Last are mutually exclusive. Last reads a page backwards from the
// end (or from Before) and is returned in forward order. After and Before are
// exclusive identifier cursors.
type Arguments struct {
	Filter  Predicate
	OrderBy []OrderBy
	Skip    int
	First   *int
	Last    *int
	After   value.ID
	Before  value.ID
}

// IsPaginated reports whether the arguments restrict the page window.
func (a Arguments) IsPaginated() bool {
	return a.Skip > 0 || a.First != nil || a.Last != nil || a.After != nil || a.Before != nil
}

// Reversed reports whether the read must run in reverse order.
func (a Arguments) Reversed() bool {
	return a.Last != nil
}

// Limit returns the page size, or -1 when unbounded.
func (a Arguments) Limit() int {
	switch {
	case a.First != nil:
		return *a.First
	case a.Last != nil:
		return *a.Last
	default:
		return -1
	}
}

// Int returns a pointer to n, for First and Last.
func Int(n int) *int {
	return &n
}
