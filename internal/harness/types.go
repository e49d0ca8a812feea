package harness

import "github.com/roach88/qres/internal/value"

// Error codes for step failures that are not executor errors.
const (
	ErrInvalidDocument = "INVALID_DOCUMENT"
	ErrExecution       = "ERROR"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name string

	// Output is the serialized result; nil when the step failed.
	Output value.Value

	// Error is the failure code and Message its text; empty on success.
	Error   string
	Message string

	// Count is the number of top-level records; IDs their identifiers when
	// the read selected them.
	Count int
	IDs   []string

	RecordReads int
	ListReads   int
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step met its expectations.
	Pass bool

	Steps []StepResult

	// Errors holds one message per unmet expectation.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError records an unmet expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Step returns the result of the named step.
func (r *Result) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
