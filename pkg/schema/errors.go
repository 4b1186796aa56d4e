package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName is returned when a schema is created without a name.
	ErrEmptyName = errors.New("schema name is required")
	// ErrMissingReduce is returned when an operation has no transition for its main phase.
	ErrMissingReduce = errors.New("missing reduce")
	// ErrMissingRequest is returned when an async operation has no request function.
	ErrMissingRequest = errors.New("missing request")
	// ErrAmbiguousReduce is returned when an async operation sets both the single and phased forms.
	ErrAmbiguousReduce = errors.New("reduce and phased transitions are mutually exclusive")
	// ErrDuplicateType is returned when two operations resolve to the same action type.
	ErrDuplicateType = errors.New("duplicate action type")
	// ErrUnknownOperation is returned for operation values that are neither Sync nor Async.
	ErrUnknownOperation = errors.New("unsupported operation kind")
)

// OperationError reports a malformed operation.
type OperationError struct {
	Schema    string
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("schema %q: operation %q: %v", e.Schema, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple operation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d schema errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// OperationErrors returns all failures if err is an AggregateError.
// Otherwise returns nil.
func OperationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
