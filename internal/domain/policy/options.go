package policy

import (
	"math/rand"

	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
)

// Option applies a configuration option to the Learner.
type Option func(*Learner)

// WithHistoryWindow bounds the per-student rolling history.
func WithHistoryWindow(n int) Option {
	return func(l *Learner) {
		if n > 0 {
			l.historyWindow = n
		}
	}
}

// WithEpsilon enables epsilon-greedy exploration. Zero (the default)
// means greedy selection at serve time.
func WithEpsilon(eps float64) Option {
	return func(l *Learner) {
		if eps >= 0 && eps <= 1 {
			l.epsilon = eps
		}
	}
}

// WithSeed fixes the random source so exploration and replay sampling
// are reproducible in tests.
func WithSeed(seed int64) Option {
	return func(l *Learner) {
		l.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed by design
	}
}

// WithLearningRate sets the training step size.
func WithLearningRate(lr float64) Option {
	return func(l *Learner) {
		if lr > 0 {
			l.learningRate = lr
		}
	}
}

// WithDiscount sets the Q-learning discount factor.
func WithDiscount(gamma float64) Option {
	return func(l *Learner) {
		if gamma >= 0 && gamma < 1 {
			l.discount = gamma
		}
	}
}

// WithTraceDecay sets the decay of the recurrent feature trace.
func WithTraceDecay(decay float64) Option {
	return func(l *Learner) {
		if decay >= 0 && decay < 1 {
			l.traceDecay = decay
		}
	}
}

// WithReplay sets the replay buffer capacity and batch size.
func WithReplay(capacity, batch int) Option {
	return func(l *Learner) {
		if capacity > 0 {
			l.replay = newReplayBuffer(capacity)
		}
		if batch > 0 {
			l.replayBatch = batch
		}
	}
}

// WithRewardShaping sets the improvement bonus, mastery bonus, and
// difficulty saturation penalty.
func WithRewardShaping(improveBonus, masteryBonus, saturationPenalty float64) Option {
	return func(l *Learner) {
		if improveBonus >= 0 {
			l.improveBonus = improveBonus
		}
		if masteryBonus >= 0 {
			l.masteryBonus = masteryBonus
		}
		if saturationPenalty >= 0 {
			l.saturationPenalty = saturationPenalty
		}
	}
}

// WithLogger sets a custom logger for the learner.
func WithLogger(log logger.Logger) Option {
	return func(l *Learner) {
		if log != nil {
			l.logger = log.Named("policy")
		}
	}
}
