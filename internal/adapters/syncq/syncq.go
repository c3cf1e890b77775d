// Package syncq reconciles the local outcome log with the remote
// store under unreliable connectivity.
//
// Every record is durable locally before the caller is acknowledged.
// A record leaves the pending set only after the remote store
// acknowledges its idempotency key, so flapping connectivity can cause
// retransmissions but never loss or duplication. Records for one
// student flush in creation order; different students flush
// concurrently.
package syncq

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/repository"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultProbeInterval  = 30 * time.Second
	defaultBackoffInitial = 500 * time.Millisecond
	defaultBackoffMax     = 30 * time.Second
	defaultMaxAttempts    = 5
)

// RemoteStore is the subset of the remote client the queue needs.
type RemoteStore interface {
	// Upsert must be idempotent on the key: retries of the same record
	// are indistinguishable from a single write.
	Upsert(ctx context.Context, rec model.OutcomeRecord, idempotencyKey string) error

	// Probe reports whether the remote store is reachable.
	Probe(ctx context.Context) bool
}

// Report summarizes one flush pass.
type Report struct {
	Sent   int
	Failed int
}

// Queue is the connectivity-aware synchronization layer.
type Queue struct {
	store  repository.Store
	remote RemoteStore

	probeInterval  time.Duration
	backoffInitial time.Duration
	backoffMax     time.Duration
	maxAttempts    int

	// Serializes flush passes; a second Flush while one is running
	// returns an empty report instead of double-walking the log.
	flushMu sync.Mutex

	mu     sync.Mutex
	online bool

	logger logger.Logger
}

// New creates a sync queue over the given store and remote.
func New(store repository.Store, remote RemoteStore, opts ...Option) *Queue {
	q := &Queue{
		store:          store,
		remote:         remote,
		probeInterval:  defaultProbeInterval,
		backoffInitial: defaultBackoffInitial,
		backoffMax:     defaultBackoffMax,
		maxAttempts:    defaultMaxAttempts,
		logger:         logger.Get().Named("syncq"),
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Enqueue durably appends a record to the local log. It always
// succeeds locally unless the disk itself fails; the record is on disk
// before Enqueue returns.
func (q *Queue) Enqueue(ctx context.Context, rec *model.OutcomeRecord) error {
	if err := q.store.AppendOutcome(ctx, rec); err != nil {
		return err
	}
	q.updatePendingGauge(ctx)
	return nil
}

// Flush pushes all pending records to the remote store. Records for
// one student go in creation order; students are flushed concurrently.
// Safe to call at any time; with nothing pending it sends zero records.
func (q *Queue) Flush(ctx context.Context) Report {
	if !q.flushMu.TryLock() {
		return Report{}
	}
	defer q.flushMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordFlushLatency(float64(time.Since(start).Milliseconds()))
	}()

	students, err := q.store.PendingStudents(ctx)
	if err != nil {
		q.logger.Error(ctx, "listing pending students failed", logger.Error(err))
		return Report{}
	}
	if len(students) == 0 {
		return Report{}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		overall Report
	)
	for _, studentID := range students {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r := q.flushStudent(ctx, id)
			mu.Lock()
			overall.Sent += r.Sent
			overall.Failed += r.Failed
			mu.Unlock()
		}(studentID)
	}
	wg.Wait()

	q.updatePendingGauge(ctx)
	return overall
}

// flushStudent sends one student's pending records in order, stopping
// at the first record that cannot be delivered so ordering holds.
func (q *Queue) flushStudent(ctx context.Context, studentID string) Report {
	var report Report

	records, err := q.store.PendingOutcomes(ctx, studentID)
	if err != nil {
		q.logger.Error(ctx, "loading pending records failed",
			logger.String("studentID", studentID),
			logger.Error(err),
		)
		return report
	}

	for i := range records {
		if ctx.Err() != nil {
			report.Failed += len(records) - i
			return report
		}
		if err := q.sendRecord(ctx, records[i]); err != nil {
			// Remaining records for this student stay pending to
			// preserve creation order.
			report.Failed += len(records) - i
			metrics.RecordSyncFailed()
			q.logger.Warn(ctx, "record flush failed; will retry on next pass",
				logger.String("key", records[i].IdempotencyKey()),
				logger.Error(err),
			)
			return report
		}
		report.Sent++
		metrics.RecordSyncSent()
	}
	return report
}

// sendRecord walks one record through Pending -> InFlight -> Synced,
// retrying transient failures with capped exponential backoff and
// rolling back to Pending when attempts run out.
func (q *Queue) sendRecord(ctx context.Context, rec model.OutcomeRecord) error {
	if err := q.store.SetOutcomeState(ctx, rec.StudentID, rec.SessionID, rec.Seq, model.SyncInFlight); err != nil {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = q.backoffInitial
	bo.MaxInterval = q.backoffMax
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt < q.maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RecordSyncRetry()
			timer := time.NewTimer(bo.NextBackOff())
			select {
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
			case <-timer.C:
			}
			if ctx.Err() != nil {
				break
			}
		}

		lastErr = q.remote.Upsert(ctx, rec, rec.IdempotencyKey())
		if lastErr == nil {
			return q.store.SetOutcomeState(ctx, rec.StudentID, rec.SessionID, rec.Seq, model.SyncSynced)
		}
		if model.KindOf(lastErr) != model.FailureTransient {
			break
		}
	}

	// Transient exhaustion or permanent failure: the record returns to
	// Pending and is never dropped.
	if err := q.store.SetOutcomeState(ctx, rec.StudentID, rec.SessionID, rec.Seq, model.SyncPending); err != nil {
		q.logger.Error(ctx, "rollback to pending failed", logger.Error(err))
	}
	return lastErr
}

// Run probes connectivity on an interval and flushes on every
// offline-to-online transition (the reconnect hook) as well as
// periodically while online. Blocks until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.probeAndFlush(ctx)
		}
	}
}

// probeAndFlush runs one reachability check and flushes when the
// remote is available.
func (q *Queue) probeAndFlush(ctx context.Context) {
	online := q.remote.Probe(ctx)

	q.mu.Lock()
	wasOnline := q.online
	q.online = online
	q.mu.Unlock()

	if !online {
		return
	}
	if !wasOnline {
		q.logger.Info(ctx, "remote store reachable again; flushing queued records")
	}
	if report := q.Flush(ctx); report.Sent > 0 || report.Failed > 0 {
		q.logger.Info(ctx, "flush pass finished",
			logger.Int("sent", report.Sent),
			logger.Int("failed", report.Failed),
		)
	}
}

// Online reports the result of the most recent probe.
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

func (q *Queue) updatePendingGauge(ctx context.Context) {
	if n, err := q.store.CountPending(ctx); err == nil {
		metrics.UpdateSyncPending(n)
	}
}
