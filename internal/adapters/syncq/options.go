package syncq

import (
	"time"

	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
)

// Option applies a configuration option to the Queue.
type Option func(*Queue)

// WithProbeInterval sets how often Run checks connectivity.
func WithProbeInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.probeInterval = d
		}
	}
}

// WithBackoff sets the initial and maximum retry intervals for a
// single record.
func WithBackoff(initial, max time.Duration) Option {
	return func(q *Queue) {
		if initial > 0 {
			q.backoffInitial = initial
		}
		if max > 0 {
			q.backoffMax = max
		}
	}
}

// WithMaxAttempts caps delivery attempts per record within one flush
// pass. The record stays pending after exhaustion.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithLogger overrides the queue's logger.
func WithLogger(l logger.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}
