package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	errs := []error{ErrNoSession, ErrDuplicateReceipt, ErrNotFound}
	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lookup failed: %w", ErrNoSession)
	if !errors.Is(wrapped, ErrNoSession) {
		t.Error("expected wrapped error to match ErrNoSession")
	}
}
