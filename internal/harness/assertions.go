package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when a step misses an expectation.
type AssertionError struct {
	Step     string
	Type     string // error, count, ids or record_reads
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: step %s: %s\n", e.Step, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// CheckStep evaluates a step's expectations. A step without Expect must
// succeed; a failed step is only checked for its error code.
func CheckStep(step StepResult, expect *Expect) []error {
	if expect == nil {
		expect = &Expect{}
	}

	if expect.Error != "" || step.Error != "" {
		if step.Error == expect.Error {
			return nil
		}
		return []error{&AssertionError{
			Step:     step.Name,
			Type:     "error",
			Expected: describeError(expect.Error, ""),
			Actual:   describeError(step.Error, step.Message),
		}}
	}

	var errs []error
	if expect.Count != nil && *expect.Count != step.Count {
		errs = append(errs, &AssertionError{
			Step:     step.Name,
			Type:     "count",
			Expected: fmt.Sprintf("%d record(s)", *expect.Count),
			Actual:   fmt.Sprintf("%d record(s)", step.Count),
		})
	}
	if expect.IDs != nil && !slices.Equal(expect.IDs, step.IDs) {
		errs = append(errs, &AssertionError{
			Step:     step.Name,
			Type:     "ids",
			Expected: fmt.Sprintf("%v", expect.IDs),
			Actual:   fmt.Sprintf("%v", step.IDs),
		})
	}
	if expect.RecordReads != nil && *expect.RecordReads != step.RecordReads {
		errs = append(errs, &AssertionError{
			Step:     step.Name,
			Type:     "record_reads",
			Expected: fmt.Sprintf("%d read(s)", *expect.RecordReads),
			Actual:   fmt.Sprintf("%d read(s)", step.RecordReads),
		})
	}
	return errs
}

func describeError(code, message string) string {
	switch {
	case code == "":
		return "success"
	case message == "":
		return code
	default:
		return code + " (" + message + ")"
	}
}
