package result

import (
	"errors"
	"fmt"
)

// ShapeError reports a result whose record values do not line up with its
// field names.
type ShapeError struct {
	// Name is the logical name of the offending result.
	Name string

	// Record is the index of the first offending record (0 for single results).
	Record int

	// Fields is the number of field names on the result.
	Fields int

	// Values is the number of values the offending record carries.
	// Set to -1 when the mismatch is in field names, not value counts.
	Values int

	// Detail describes a field-name mismatch.
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("result %q: %s", e.Name, e.Detail)
	}
	return fmt.Sprintf("result %q: record %d has %d values for %d fields",
		e.Name, e.Record, e.Values, e.Fields)
}

// IsShapeError reports whether err wraps a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
