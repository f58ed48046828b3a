package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	err := NotFoundError{Entity: EntityResident, ID: "r-1"}
	if !IsNotFound(err) {
		t.Fatal("expected direct NotFoundError to match")
	}
	wrapped := fmt.Errorf("lookup: %w", err)
	if !IsNotFound(wrapped) {
		t.Fatal("expected wrapped NotFoundError to match")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("unrelated error should not match")
	}
}

func TestAbortedErrorUnwrapAndRetryable(t *testing.T) {
	err := AbortedError{Op: "commit", Err: context.Canceled}
	if !IsRetryable(err) {
		t.Fatal("aborted error should be retryable")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatal("expected unwrap to expose the cause")
	}
	if IsRetryable(NotFoundError{Entity: EntityCaregiver, ID: "c-1"}) {
		t.Fatal("not-found should not be retryable")
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NotFoundError{Entity: EntityResident, ID: "r-1"}, "resident r-1 not found"},
		{CapacityExceededError{CaregiverID: "c-1", Capacity: 5}, "caregiver c-1 at capacity (5 residents)"},
		{AlreadyAssignedError{ResidentID: "r-1", CaregiverID: "c-1"}, "caregiver c-1 already assigned to resident r-1"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
