package model

import (
	"errors"
	"fmt"
)

// FailureKind classifies collaborator and handler failures so callers
// can pick fallback behavior without inspecting concrete errors.
type FailureKind int

const (
	// FailureInvalidInput marks malformed events or utterances.
	// Rejected locally, never retried.
	FailureInvalidInput FailureKind = iota
	// FailureTransient marks a collaborator that is temporarily down.
	// Retried with backoff.
	FailureTransient
	// FailurePermanent marks a repeatedly violated collaborator
	// contract. Degrade to the safe default and surface to the log.
	FailurePermanent
	// FailureEmergencyConflict marks the loser of two racing emergency
	// events; the earlier timestamp wins.
	FailureEmergencyConflict
)

// String returns the snake_case name of the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureInvalidInput:
		return "invalid_input"
	case FailureTransient:
		return "transient_unavailable"
	case FailurePermanent:
		return "permanent_failure"
	case FailureEmergencyConflict:
		return "emergency_override_conflict"
	default:
		return "unknown"
	}
}

// Failure wraps an error with its classification.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Invalid wraps err as an InvalidInput failure.
func Invalid(err error) error { return &Failure{Kind: FailureInvalidInput, Err: err} }

// Transient wraps err as a TransientUnavailable failure.
func Transient(err error) error { return &Failure{Kind: FailureTransient, Err: err} }

// Permanent wraps err as a PermanentFailure.
func Permanent(err error) error { return &Failure{Kind: FailurePermanent, Err: err} }

// KindOf returns the classification of err, defaulting to
// FailureTransient for unclassified errors so callers err on the side
// of retrying.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureTransient
}
