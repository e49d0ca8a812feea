package executor

import (
	"errors"
	"fmt"
)

// QueryError is an error planning or running a read.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Query is the name of the (sub)query the error belongs to.
	Query string

	// Err is the underlying cause, if any.
	Err error
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeUnknownModel indicates the read names a model the schema lacks.
	ErrCodeUnknownModel QueryErrorCode = "UNKNOWN_MODEL"

	// ErrCodeUnknownField indicates a selected, filtered or ordered field the
	// model lacks.
	ErrCodeUnknownField QueryErrorCode = "UNKNOWN_FIELD"

	// ErrCodeUnsupported indicates a valid but unsupported read shape.
	ErrCodeUnsupported QueryErrorCode = "UNSUPPORTED"

	// ErrCodeInvalidQuery indicates malformed arguments or selection.
	ErrCodeInvalidQuery QueryErrorCode = "INVALID_QUERY"

	// ErrCodeStore indicates the store failed to run a read.
	ErrCodeStore QueryErrorCode = "STORE_ERROR"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Query != "" {
		msg = fmt.Sprintf("%s (query=%s)", msg, e.Query)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err is a QueryError with the given code.
// Uses errors.As to handle wrapped errors.
func IsQueryError(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

func newQueryError(code QueryErrorCode, query, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Query: query, Message: fmt.Sprintf(format, args...)}
}
