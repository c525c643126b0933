package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id does not exist in the collection.
	ErrNotFound = errors.New("subscription not found")

	// ErrInvalidField wraps boundary validation failures.
	ErrInvalidField = errors.New("invalid field")

	// ErrMalformedData marks a persisted collection that cannot be decoded.
	ErrMalformedData = errors.New("malformed persisted data")

	// ErrPersistence wraps failures of the durable backend.
	ErrPersistence = errors.New("persistence failure")
)

// FieldError names the offending field of a rejected input.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

func invalidField(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
