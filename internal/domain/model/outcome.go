package model

import (
	"fmt"
	"time"
)

// SyncState tracks a record through the sync state machine:
// Pending -> InFlight -> Synced (terminal), with InFlight -> Pending
// on transient failure.
type SyncState int

const (
	SyncPending SyncState = iota
	SyncInFlight
	SyncSynced
)

// String returns the lowercase name of the state.
func (s SyncState) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncInFlight:
		return "in_flight"
	case SyncSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Utterance pairs one recognized speech turn with its reference.
// It exists only for the duration of the turn that scores it.
type Utterance struct {
	RecognizedText     string
	RecognizedPhonemes []string
	ReferencePhonemes  []string
	StudentID          string
	TS                 time.Time
}

// OutcomeRecord is the append-only log entry written for every
// completed lesson turn. Seq is assigned by the local store and is
// strictly increasing per student; (StudentID, SessionID, Seq) is the
// idempotency key at the remote store.
type OutcomeRecord struct {
	StudentID    string
	SessionID    string
	Seq          int64
	ActionTaken  Action
	PER          float64
	OverallScore float64
	Feedback     string
	State        SyncState
	CreatedAt    time.Time
}

// IdempotencyKey returns the stable key that makes remote retries of
// the same logical record indistinguishable from a single write.
func (r OutcomeRecord) IdempotencyKey() string {
	return fmt.Sprintf("%s:%s:%d", r.StudentID, r.SessionID, r.Seq)
}

// Synced reports whether the record reached its terminal state.
func (r OutcomeRecord) Synced() bool {
	return r.State == SyncSynced
}
