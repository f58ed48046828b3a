package domain

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a referenced entity id does not exist.
// It is not retryable without the caller correcting its input.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// CapacityExceededError is returned when an assignment would push a caregiver
// past its configured resident capacity.
type CapacityExceededError struct {
	CaregiverID string
	Capacity    int
}

func (e CapacityExceededError) Error() string {
	return fmt.Sprintf("caregiver %s at capacity (%d residents)", e.CaregiverID, e.Capacity)
}

// AlreadyAssignedError is returned when an assignment already exists for the
// resident-caregiver pair. Re-assignment is rejected, never silently absorbed.
type AlreadyAssignedError struct {
	ResidentID  string
	CaregiverID string
}

func (e AlreadyAssignedError) Error() string {
	return fmt.Sprintf("caregiver %s already assigned to resident %s", e.CaregiverID, e.ResidentID)
}

// AbortedError wraps a transient transaction failure (conflict, cancellation,
// timeout). Safe to retry with the same input.
type AbortedError struct {
	Op  string
	Err error
}

func (e AbortedError) Error() string {
	return fmt.Sprintf("%s aborted: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e AbortedError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsRetryable reports whether err represents a transient abort that the
// caller may retry with identical input.
func IsRetryable(err error) bool {
	var ab AbortedError
	return errors.As(err, &ab)
}
