package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
)

// SQLiteStore implements Store on a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

var schema = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA synchronous = NORMAL`,
	`PRAGMA busy_timeout = 5000`,
	`CREATE TABLE IF NOT EXISTS outcome_records (
		student_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		action     TEXT NOT NULL,
		per        REAL NOT NULL,
		score      REAL NOT NULL,
		feedback   TEXT NOT NULL DEFAULT '',
		state      INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (student_id, session_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outcome_pending
		ON outcome_records (student_id, state, seq)`,
	`CREATE TABLE IF NOT EXISTS policy_snapshots (
		student_id TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS policy_model (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		weights    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// NewSQLiteStore opens (or creates) the database at path and applies
// the schema. Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY between the
	// scheduler and the sync flusher.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// AppendOutcome durably appends a record with the next per-student
// sequence number. The insert is idempotent on the primary key.
func (s *SQLiteStore) AppendOutcome(ctx context.Context, rec *model.OutcomeRecord) error {
	if rec.StudentID == "" || rec.SessionID == "" {
		return model.Invalid(fmt.Errorf("outcome record missing student or session id"))
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM outcome_records WHERE student_id = ?`,
		rec.StudentID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}
	rec.Seq = next
	rec.State = model.SyncPending

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outcome_records
			(student_id, session_id, seq, action, per, score, feedback, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (student_id, session_id, seq) DO NOTHING`,
		rec.StudentID, rec.SessionID, rec.Seq, rec.ActionTaken.String(),
		rec.PER, rec.OverallScore, rec.Feedback, int(rec.State), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// PendingOutcomes returns unsynced records for one student in creation
// order.
func (s *SQLiteStore) PendingOutcomes(ctx context.Context, studentID string) ([]model.OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, session_id, seq, action, per, score, feedback, state, created_at
		 FROM outcome_records
		 WHERE student_id = ? AND state != ?
		 ORDER BY seq ASC`,
		studentID, int(model.SyncSynced),
	)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.OutcomeRecord
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PendingStudents returns the students with unsynced records.
func (s *SQLiteStore) PendingStudents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT student_id FROM outcome_records WHERE state != ? ORDER BY student_id`,
		int(model.SyncSynced),
	)
	if err != nil {
		return nil, fmt.Errorf("query pending students: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountPending returns the total number of unsynced records.
func (s *SQLiteStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outcome_records WHERE state != ?`,
		int(model.SyncSynced),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// SetOutcomeState transitions one record's sync state.
func (s *SQLiteStore) SetOutcomeState(ctx context.Context, studentID, sessionID string, seq int64, state model.SyncState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outcome_records SET state = ?
		 WHERE student_id = ? AND session_id = ? AND seq = ?`,
		int(state), studentID, sessionID, seq,
	)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set state result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SavePolicySnapshot upserts the student's serialized policy state.
func (s *SQLiteStore) SavePolicySnapshot(ctx context.Context, state *model.PolicyState) error {
	if state == nil || state.StudentID == "" {
		return model.Invalid(fmt.Errorf("policy snapshot missing student id"))
	}
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO policy_snapshots (student_id, state, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (student_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.StudentID, string(blob), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadPolicySnapshot returns the stored policy state, or nil when the
// student has none.
func (s *SQLiteStore) LoadPolicySnapshot(ctx context.Context, studentID string) (*model.PolicyState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM policy_snapshots WHERE student_id = ?`,
		studentID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var state model.PolicyState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &state, nil
}

// SaveModelWeights upserts the shared action-value model blob. There
// is a single model row; the learner owns the encoding.
func (s *SQLiteStore) SaveModelWeights(ctx context.Context, blob []byte) error {
	if len(blob) == 0 {
		return model.Invalid(fmt.Errorf("empty model blob"))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO policy_model (id, weights, updated_at)
		 VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET weights = excluded.weights, updated_at = excluded.updated_at`,
		string(blob), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save model weights: %w", err)
	}
	return nil
}

// LoadModelWeights returns the stored model blob, or nil when no model
// has been saved yet.
func (s *SQLiteStore) LoadModelWeights(ctx context.Context) ([]byte, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT weights FROM policy_model WHERE id = 1`).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load model weights: %w", err)
	}
	return []byte(blob), nil
}

// SnapshotStudents returns students that have a stored snapshot.
func (s *SQLiteStore) SnapshotStudents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT student_id FROM policy_snapshots ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot students: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanOutcome(rows *sql.Rows) (model.OutcomeRecord, error) {
	var rec model.OutcomeRecord
	var action string
	var state int
	if err := rows.Scan(
		&rec.StudentID, &rec.SessionID, &rec.Seq, &action,
		&rec.PER, &rec.OverallScore, &rec.Feedback, &state, &rec.CreatedAt,
	); err != nil {
		return rec, fmt.Errorf("scan outcome: %w", err)
	}
	rec.ActionTaken = parseAction(action)
	rec.State = model.SyncState(state)
	return rec, nil
}

func parseAction(name string) model.Action {
	for a := model.Action(0); a < model.NumActions; a++ {
		if a.String() == name {
			return a
		}
	}
	return model.DefaultAction
}
