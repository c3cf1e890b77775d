// Package repository provides the durable local store: the append-only
// outcome log and per-student policy snapshots. Both survive process
// restart; the sync queue and the policy learner rebuild their
// in-memory views from here on startup.
package repository

import (
	"context"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
)

// Store provides read/write access to durable robot state.
type Store interface {
	// AppendOutcome durably appends a record, assigning the next
	// per-student sequence number and the Pending state. The record is
	// on disk before AppendOutcome returns.
	AppendOutcome(ctx context.Context, rec *model.OutcomeRecord) error

	// PendingOutcomes returns a student's unsynced records in creation
	// order (ascending sequence).
	PendingOutcomes(ctx context.Context, studentID string) ([]model.OutcomeRecord, error)

	// PendingStudents returns the students that have unsynced records.
	PendingStudents(ctx context.Context) ([]string, error)

	// CountPending returns the total number of unsynced records.
	CountPending(ctx context.Context) (int, error)

	// SetOutcomeState transitions one record through the sync state
	// machine. Returns ErrNotFound for an unknown record.
	SetOutcomeState(ctx context.Context, studentID, sessionID string, seq int64, state model.SyncState) error

	// SavePolicySnapshot upserts the student's policy state.
	SavePolicySnapshot(ctx context.Context, state *model.PolicyState) error

	// LoadPolicySnapshot returns the stored policy state, or nil when
	// the student has none.
	LoadPolicySnapshot(ctx context.Context, studentID string) (*model.PolicyState, error)

	// SnapshotStudents returns students that have a stored snapshot.
	SnapshotStudents(ctx context.Context) ([]string, error)

	// SaveModelWeights upserts the single shared action-value model
	// blob. The learner owns the encoding.
	SaveModelWeights(ctx context.Context, blob []byte) error

	// LoadModelWeights returns the stored model blob, or nil when no
	// model has been saved yet.
	LoadModelWeights(ctx context.Context) ([]byte, error)

	// Close releases the underlying database.
	Close() error
}
