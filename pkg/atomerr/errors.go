// Package atomerr defines the error kinds surfaced by the persistence
// layer (spec §7): BadURI, BadEncoding, NotFound, InvariantViolation,
// CASFailure, and NotImplemented. Callers discriminate with errors.Is
// against the sentinel Kind values, or errors.As against *CASError to
// recover the kind and the wrapped cause.
package atomerr

import (
	"errors"
	"fmt"
)

// Kind discriminates the error kinds named in spec §7.
type Kind string

const (
	BadURI            Kind = "bad_uri"
	BadEncoding       Kind = "bad_encoding"
	NotFound          Kind = "not_found"
	InvariantViolated Kind = "invariant_violation"
	CASFailure        Kind = "cas_failure"
	NotImplemented    Kind = "not_implemented"
)

// CASError is the concrete error type returned across the persistence
// layer's public boundary.
type CASError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *CASError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *CASError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, atomerr.ErrNotFound) (or any other Err* kind
// sentinel) match by comparing kinds rather than identity.
func (e *CASError) Is(target error) bool {
	var k *kindSentinel
	if errors.As(target, &k) {
		return e.Kind == k.kind
	}
	return false
}

// kindSentinel lets a bare Kind be used with errors.Is via sentinel
// values below (e.g. atomerr.ErrNotFound).
type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return string(k.kind) }

var (
	ErrBadURI            error = &kindSentinel{BadURI}
	ErrBadEncoding        error = &kindSentinel{BadEncoding}
	ErrNotFound           error = &kindSentinel{NotFound}
	ErrInvariantViolation error = &kindSentinel{InvariantViolated}
	ErrCASFailure         error = &kindSentinel{CASFailure}
	ErrNotImplemented     error = &kindSentinel{NotImplemented}
)

// New builds a CASError, wrapping err (which may be nil).
func New(kind Kind, op string, err error) *CASError {
	return &CASError{Kind: kind, Op: op, Err: err}
}

// Wrap is a convenience for the common "op failed: %w" pattern used
// throughout the rest of the repo, tagged with a kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(kind, op, err)
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *CASError, and CASFailure otherwise — matching spec §7's rule that any
// CAS-reported error that isn't NotFound surfaces as CASFailure.
func KindOf(err error) Kind {
	var ce *CASError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return CASFailure
}
