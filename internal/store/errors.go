package store

import (
	"errors"
	"fmt"
)

// Errors returned by every EntityStore implementation.
var (
	// ErrNotFound is returned when no live record matches a lookup.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write collides with an existing record id.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when a record cannot be stored as given,
	// e.g. a missing type or a constraint violation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidScope is returned when a scope references an unusable
	// attribute name or operator.
	ErrInvalidScope = errors.New("invalid scope")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is or wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError adds the record type and operation to an underlying failure.
type StoreError struct {
	RecordType string
	Operation  string
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Operation, e.RecordType, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Operation, e.RecordType, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError.
func NewStoreError(recordType, operation, message string, err error) *StoreError {
	return &StoreError{
		RecordType: recordType,
		Operation:  operation,
		Message:    message,
		Err:        err,
	}
}
