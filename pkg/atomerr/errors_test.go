package atomerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCASErrorIsSentinel(t *testing.T) {
	err := New(NotFound, "fetch_by_path", fmt.Errorf("no such link"))

	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should match the NotFound sentinel")
	}
	if errors.Is(err, ErrCASFailure) {
		t.Error("errors.Is should not match an unrelated sentinel")
	}
}

func TestCASErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := New(CASFailure, "do_store_single_atom", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through to the wrapped cause")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(New(InvariantViolated, "detach", nil)) != InvariantViolated {
		t.Error("KindOf should recover the original kind")
	}
	if KindOf(fmt.Errorf("some unrelated error")) != CASFailure {
		t.Error("KindOf should default unrecognized errors to CASFailure")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(NotFound, "op", nil) != nil {
		t.Error("Wrap(nil) must return nil")
	}
}
