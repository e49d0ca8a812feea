package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a query or its arguments.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks a query tree for structural problems: missing table or
// columns, empty field names in predicates.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	return v.err()
}

// Validate checks the arguments for contradictory or out-of-range pagination.
func (a Arguments) Validate() error {
	v := &validator{}
	v.validateArguments(a)
	return v.err()
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addProblem("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == "" {
		v.addProblem("select has no table")
	}
	if len(sel.Columns) == 0 {
		v.addProblem("select on %q has no columns", sel.From)
	}
	for i, c := range sel.Columns {
		if c == "" {
			v.addProblem("select on %q has empty column at position %d", sel.From, i)
		}
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		return
	case Equals:
		if pred.Field == "" {
			v.addProblem("equals predicate has empty field")
		}
	case *Equals:
		v.validatePredicate(*pred)
	case In:
		if pred.Field == "" {
			v.addProblem("in predicate has empty field")
		}
	case *In:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateArguments(a Arguments) {
	if a.First != nil && a.Last != nil {
		v.addProblem("first and last cannot be combined")
	}
	if a.First != nil && *a.First < 0 {
		v.addProblem("first must be non-negative, got %d", *a.First)
	}
	if a.Last != nil && *a.Last < 0 {
		v.addProblem("last must be non-negative, got %d", *a.Last)
	}
	if a.Skip < 0 {
		v.addProblem("skip must be non-negative, got %d", a.Skip)
	}
	if (a.After != nil || a.Before != nil) && len(a.OrderBy) > 0 {
		v.addProblem("cursors require the default id ordering")
	}
	for i, o := range a.OrderBy {
		if o.Field == "" {
			v.addProblem("order by at position %d has empty field", i)
		}
	}
	if a.Filter != nil {
		v.validatePredicate(a.Filter)
	}
}
