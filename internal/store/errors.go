package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/sciencepath/internal/domain"
)

// Common store errors used across all backend implementations.
var (
	// ErrNotFound is returned by Backend.Get when the key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned when a write would push a backend past its
	// capacity ceiling.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("store closed")

	// ErrInvalidOp is returned by Apply for an operation with an unknown kind
	// or an empty key.
	ErrInvalidOp = errors.New("invalid batch operation")
)

// StoreError is a custom error type for store-specific errors with additional context.
// It matches domain.ErrStorage with errors.Is as well as the wrapped cause.
type StoreError struct {
	Key       string // The key involved, empty for batches
	Operation string // The operation that failed (e.g., "get", "set", "apply")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	target := e.Key
	if target == "" {
		target = "batch"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, target, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, target, e.Message)
}

// Unwrap exposes both the storage sentinel and the original error.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrStorage}
	}
	return []error{domain.ErrStorage, e.Err}
}

// NewStoreError creates a new StoreError with the given key, operation, message, and wrapped error.
func NewStoreError(key, operation, message string, err error) *StoreError {
	return &StoreError{
		Key:       key,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsNotFoundError reports whether err means the key is absent.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
