package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable category of a solve failure, reported to
// the caller alongside a human-readable description.
type ErrorKind string

const (
	ErrKindMalformedInput    ErrorKind = "MalformedInput"
	ErrKindOrderConstraint   ErrorKind = "OrderConstraintViolation"
	ErrKindPriceDisconnected ErrorKind = "PriceGraphDisconnected"
	ErrKindPriceAmbiguous    ErrorKind = "PriceGraphAmbiguous"
	ErrKindDuplicatePlan     ErrorKind = "DuplicateExecutionPlan"
	ErrKindInternal          ErrorKind = "InternalServerError"
)

// SolveError is a recoverable, tagged failure of the settlement pipeline.
// None of these conditions terminate the process; they are surfaced to the
// caller as a structured error response.
type SolveError struct {
	Kind        ErrorKind
	Description string
	err         error
}

// NewSolveError creates a SolveError with a formatted description.
func NewSolveError(kind ErrorKind, format string, args ...any) *SolveError {
	return &SolveError{Kind: kind, Description: fmt.Sprintf(format, args...)}
}

// WrapSolveError tags an underlying error with a kind, preserving the cause
// for errors.Is / errors.As.
func WrapSolveError(kind ErrorKind, err error) *SolveError {
	return &SolveError{Kind: kind, Description: err.Error(), err: err}
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func (e *SolveError) Unwrap() error {
	return e.err
}

// AsSolveError extracts a SolveError from an error chain.
func AsSolveError(err error) (*SolveError, bool) {
	var se *SolveError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
