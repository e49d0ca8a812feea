package record

import "github.com/roach88/qres/internal/value"

// ScalarListValues is the ordered list payload of one scalar-list field for
// one record, keyed by the owning record's identifier.
type ScalarListValues struct {
	NodeID value.ID
	Values []value.Value
}

// ListResult pairs a scalar-list field name with the list values fetched for
// it, one entry per record that has any.
type ListResult struct {
	Field  string
	Values []ScalarListValues
}

// ValuesFor returns the list payload for the given record id, or an empty
// slice when the record has none.
func (l ListResult) ValuesFor(id value.ID) []value.Value {
	for _, v := range l.Values {
		if v.NodeID == id {
			return v.Values
		}
	}
	return []value.Value{}
}
