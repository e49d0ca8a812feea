package result

// IDField is the field name identifier lookups search for. Matching is exact
// and case-sensitive.
const IDField = "id"

// ReadQueryResult is the sealed union of SingleReadQueryResult and
// ManyReadQueryResults.
//
// Name is the only operation both shapes share. Identifier and record access
// requires narrowing to the concrete type:
//
//	switch r := res.(type) {
//	case *SingleReadQueryResult:
//	    id, ok := r.FindID()
//	case *ManyReadQueryResults:
//	    ids, ok := r.FindIDs()
//	}
type ReadQueryResult interface {
	// Name returns the logical query name the serializer keys output by.
	Name() string

	readQueryResult() // Sealed - only the two result shapes implement it
}

func (*SingleReadQueryResult) readQueryResult() {}
func (*ManyReadQueryResults) readQueryResult()  {}

// Walk visits r and every nested result depth-first, parents before
// children, in nested order. Walk stops early when fn returns false.
func Walk(r ReadQueryResult, fn func(r ReadQueryResult, depth int) bool) {
	walk(r, 0, fn)
}

func walk(r ReadQueryResult, depth int, fn func(ReadQueryResult, int) bool) bool {
	if r == nil {
		return true
	}
	if !fn(r, depth) {
		return false
	}
	for _, child := range NestedOf(r) {
		if !walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// NestedOf returns the nested results of either shape.
func NestedOf(r ReadQueryResult) []ReadQueryResult {
	switch res := r.(type) {
	case *SingleReadQueryResult:
		return res.nested
	case *ManyReadQueryResults:
		return res.nested
	default:
		return nil
	}
}
