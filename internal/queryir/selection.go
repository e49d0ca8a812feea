package queryir

// SelectedScalar is one scalar field of a read, explicit or implicit.
type SelectedScalar struct {
	Field    string
	Implicit bool // Added for internal resolution, not requested by the caller
}

// SelectedRelation is one relation requested on a read.
type SelectedRelation struct {
	Field string
	Many  bool // To-many relations render as lists, to-one as object or null
}

// SelectedFields describes which fields a read requested and which it pulled
// in implicitly. Scalars are kept in column order.
type SelectedFields struct {
	Scalars   []SelectedScalar
	Lists     []string
	Relations []SelectedRelation
}

// Columns returns every scalar field name, explicit and implicit, in order.
func (s SelectedFields) Columns() []string {
	cols := make([]string, len(s.Scalars))
	for i, sc := range s.Scalars {
		cols[i] = sc.Field
	}
	return cols
}

// IsExplicit reports whether field was requested by the caller.
func (s SelectedFields) IsExplicit(field string) bool {
	for _, sc := range s.Scalars {
		if sc.Field == field {
			return !sc.Implicit
		}
	}
	return false
}

// HasScalar reports whether field is selected at all.
func (s SelectedFields) HasScalar(field string) bool {
	for _, sc := range s.Scalars {
		if sc.Field == field {
			return true
		}
	}
	return false
}

// Relation looks up a selected relation by field name.
func (s SelectedFields) Relation(field string) (SelectedRelation, bool) {
	for _, r := range s.Relations {
		if r.Field == field {
			return r, true
		}
	}
	return SelectedRelation{}, false
}

// WithImplicit returns a copy with field appended as an implicit scalar,
// unless it is already selected.
func (s SelectedFields) WithImplicit(field string) SelectedFields {
	if s.HasScalar(field) {
		return s
	}
	scalars := make([]SelectedScalar, len(s.Scalars), len(s.Scalars)+1)
	copy(scalars, s.Scalars)
	s.Scalars = append(scalars, SelectedScalar{Field: field, Implicit: true})
	return s
}
