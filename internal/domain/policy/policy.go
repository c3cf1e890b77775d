// Package policy selects the next teaching action for a student from a
// rolling window of past performance and updates itself online.
//
// The model is intentionally small: a linear action-value function over
// a feature vector built from the student's recent turns, concatenated
// with an exponentially decayed trace of those features that acts as
// the recurrent hidden state. Updates are one Q-learning step over a
// uniformly sampled experience-replay batch. Reward shaping and the
// action set follow the values documented in DESIGN.md and are
// configurable through options.
package policy

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// Default hyperparameters.
const (
	defaultHistoryWindow = 10
	defaultReplayCap     = 512
	defaultReplayBatch   = 16
	defaultLearningRate  = 0.05
	defaultDiscount      = 0.95
	defaultTraceDecay    = 0.8
	defaultSeed          = 42

	// Reward shaping.
	defaultImproveBonus      = 0.2
	defaultMasteryBonus      = 0.2
	defaultSaturationPenalty = 0.2
	masteryScore             = 80.0
)

// baseDim is the size of the instantaneous feature vector:
// bias, mean score, last score, trend, difficulty, window fill,
// and a one-hot of the last action.
const baseDim = 6 + model.NumActions

// featureDim doubles baseDim: instantaneous features plus the decayed
// trace that carries state across turns.
const featureDim = 2 * baseDim

// SnapshotStore persists learning state across restarts: per-student
// policy snapshots plus the single shared action-value model blob.
type SnapshotStore interface {
	SavePolicySnapshot(ctx context.Context, state *model.PolicyState) error
	LoadPolicySnapshot(ctx context.Context, studentID string) (*model.PolicyState, error)
	SaveModelWeights(ctx context.Context, blob []byte) error
	LoadModelWeights(ctx context.Context) ([]byte, error)
}

// modelSnapshot is the serialized form of the shared weights. The
// dimensions guard against loading a blob written by an incompatible
// feature layout.
type modelSnapshot struct {
	Actions  int         `json:"actions"`
	Features int         `json:"features"`
	Weights  [][]float64 `json:"weights"`
}

// Learner is the sequential decision component. Safe for concurrent
// use; updates for the same student are serialized, reads are
// copy-then-swap and never block on a pending update.
type Learner struct {
	snapshots SnapshotStore

	mu      sync.RWMutex
	entries map[string]*studentEntry

	// Linear action-value weights, one vector per action.
	wmu     sync.Mutex
	weights [model.NumActions][featureDim]float64

	replay *replayBuffer

	rngMu sync.Mutex
	rng   *rand.Rand

	historyWindow int
	epsilon       float64
	learningRate  float64
	discount      float64
	traceDecay    float64
	replayBatch   int

	improveBonus      float64
	masteryBonus      float64
	saturationPenalty float64

	logger logger.Logger
}

type studentEntry struct {
	mu    sync.Mutex // serializes updates for this student
	state atomic.Pointer[model.PolicyState]
	// snapshot write failed; retry on the next update
	dirty bool
}

// NewLearner creates a learner with configuration options.
func NewLearner(snapshots SnapshotStore, opts ...Option) *Learner {
	l := &Learner{
		snapshots:         snapshots,
		entries:           make(map[string]*studentEntry),
		replay:            newReplayBuffer(defaultReplayCap),
		rng:               rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic seed for reproducible selection
		historyWindow:     defaultHistoryWindow,
		epsilon:           0, // greedy at serve time
		learningRate:      defaultLearningRate,
		discount:          defaultDiscount,
		traceDecay:        defaultTraceDecay,
		replayBatch:       defaultReplayBatch,
		improveBonus:      defaultImproveBonus,
		masteryBonus:      defaultMasteryBonus,
		saturationPenalty: defaultSaturationPenalty,
		logger:            logger.Get().Named("policy"),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Restore reloads persisted state at startup: the shared action-value
// weights first, then per-student snapshots. Missing state is not an
// error; a student taught before the restart then gets the same greedy
// decision as before it.
func (l *Learner) Restore(ctx context.Context, studentIDs []string) {
	l.restoreModel(ctx)

	for _, id := range studentIDs {
		st, err := l.snapshots.LoadPolicySnapshot(ctx, id)
		if err != nil {
			l.logger.Warn(ctx, "policy snapshot load failed",
				logger.String("studentID", id),
				logger.Error(err),
			)
			continue
		}
		if st == nil {
			continue
		}
		l.entry(id).state.Store(st)
	}
}

// restoreModel reloads the shared weights. A malformed or
// shape-mismatched blob is ignored; learning then starts from zero
// weights as it would on a first run.
func (l *Learner) restoreModel(ctx context.Context) {
	blob, err := l.snapshots.LoadModelWeights(ctx)
	if err != nil {
		l.logger.Warn(ctx, "model weights load failed", logger.Error(err))
		return
	}
	if len(blob) == 0 {
		return
	}

	var snap modelSnapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		l.logger.Warn(ctx, "model weights blob malformed", logger.Error(err))
		return
	}
	if snap.Actions != model.NumActions || snap.Features != featureDim || len(snap.Weights) != model.NumActions {
		l.logger.Warn(ctx, "stored model shape mismatch; starting fresh",
			logger.Int("actions", snap.Actions),
			logger.Int("features", snap.Features),
		)
		return
	}
	for _, row := range snap.Weights {
		if len(row) != featureDim {
			l.logger.Warn(ctx, "stored model shape mismatch; starting fresh",
				logger.Int("rowLen", len(row)),
			)
			return
		}
	}

	l.wmu.Lock()
	for a := range l.weights {
		copy(l.weights[a][:], snap.Weights[a])
	}
	l.wmu.Unlock()
}

// persistModel writes the shared weights so a restarted process serves
// the same greedy decisions. Failures are logged; the next update
// writes the weights again.
func (l *Learner) persistModel(ctx context.Context) {
	blob, err := l.encodeModel()
	if err != nil {
		l.logger.Warn(ctx, "model weights encode failed", logger.Error(err))
		return
	}
	if err := l.snapshots.SaveModelWeights(ctx, blob); err != nil {
		metrics.RecordSnapshotError()
		l.logger.Warn(ctx, "model weights save failed; will retry on next update", logger.Error(err))
	}
}

func (l *Learner) encodeModel() ([]byte, error) {
	snap := modelSnapshot{
		Actions:  model.NumActions,
		Features: featureDim,
		Weights:  make([][]float64, model.NumActions),
	}
	l.wmu.Lock()
	for a := range l.weights {
		row := make([]float64, featureDim)
		copy(row, l.weights[a][:])
		snap.Weights[a] = row
	}
	l.wmu.Unlock()
	return json.Marshal(snap)
}

// SelectAction returns the next teaching action for a student. With no
// history it returns the fixed beginner action. Exploration only
// happens when an epsilon was configured, using the seeded generator.
func (l *Learner) SelectAction(ctx context.Context, studentID string) model.Action {
	st := l.entry(studentID).state.Load()
	if st == nil || len(st.History) == 0 {
		metrics.RecordActionSelected(model.DefaultAction.String())
		return model.DefaultAction
	}

	if l.epsilon > 0 {
		l.rngMu.Lock()
		explore := l.rng.Float64() < l.epsilon
		var pick model.Action
		if explore {
			pick = model.Action(l.rng.Intn(model.NumActions))
		}
		l.rngMu.Unlock()
		if explore {
			metrics.RecordExploration()
			metrics.RecordActionSelected(pick.String())
			return pick
		}
	}

	x := features(st)
	action := l.greedy(x)
	metrics.RecordActionSelected(action.String())
	return action
}

// Update appends the realized (action, score) pair to the student's
// history, derives the reward, and performs one replay training step.
// It never fails the caller; persistence errors are logged and retried
// on the next update.
func (l *Learner) Update(ctx context.Context, studentID string, action model.Action, overallScore float64) {
	e := l.entry(studentID)
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.state.Load()
	st := old.Clone()
	if st == nil {
		st = &model.PolicyState{
			StudentID: studentID,
			Trace:     make([]float64, baseDim),
		}
	}

	reward := l.reward(st, overallScore)

	prevX := features(st)

	st.History = append(st.History, model.Turn{Action: action, Score: overallScore, TS: time.Now().UTC()})
	if len(st.History) > l.historyWindow {
		st.History = st.History[len(st.History)-l.historyWindow:]
	}
	st.Difficulty = difficulty(st.History)
	advanceTrace(st, l.traceDecay)
	st.UpdatedAt = time.Now().UTC()

	nextX := features(st)

	l.replay.add(experience{state: prevX, action: action, reward: reward, next: nextX})
	l.train()

	// Copy-then-swap: readers either see the old state or the fully
	// updated one, never a partial mutation.
	e.state.Store(st)

	l.persistModel(ctx)

	if err := l.snapshots.SavePolicySnapshot(ctx, st); err != nil {
		metrics.RecordSnapshotError()
		e.dirty = true
		l.logger.Warn(ctx, "policy snapshot save failed; will retry on next update",
			logger.String("studentID", studentID),
			logger.Error(err),
		)
		return
	}
	if e.dirty {
		e.dirty = false
		l.logger.Info(ctx, "policy snapshot recovered after earlier failure",
			logger.String("studentID", studentID),
		)
	}
}

// State returns a copy of the student's current policy state, or nil.
func (l *Learner) State(studentID string) *model.PolicyState {
	return l.entry(studentID).state.Load().Clone()
}

func (l *Learner) entry(studentID string) *studentEntry {
	l.mu.RLock()
	e, ok := l.entries[studentID]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok = l.entries[studentID]; ok {
		return e
	}
	e = &studentEntry{}
	l.entries[studentID] = e
	return e
}

// reward derives the scalar reward for a realized score given the
// state before the turn was appended.
func (l *Learner) reward(st *model.PolicyState, overallScore float64) float64 {
	r := overallScore / 100.0
	if last, ok := st.LastTurn(); ok && overallScore > last.Score {
		r += l.improveBonus
	}
	if overallScore >= masteryScore {
		r += l.masteryBonus
	}
	if st.Difficulty > 0.9 || (st.Difficulty < 0.1 && len(st.History) > 0) {
		r -= l.saturationPenalty
	}
	return r
}

// greedy returns the argmax action, lowest index on ties.
func (l *Learner) greedy(x [featureDim]float64) model.Action {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	best := model.Action(0)
	bestQ := dot(l.weights[0], x)
	for a := 1; a < model.NumActions; a++ {
		if q := dot(l.weights[a], x); q > bestQ {
			best = model.Action(a)
			bestQ = q
		}
	}
	return best
}

// train performs one Q-learning step over a sampled replay batch.
func (l *Learner) train() {
	l.rngMu.Lock()
	batch := l.replay.sample(l.rng, l.replayBatch)
	l.rngMu.Unlock()
	if len(batch) == 0 {
		return
	}

	l.wmu.Lock()
	defer l.wmu.Unlock()

	for _, exp := range batch {
		q := dot(l.weights[exp.action], exp.state)
		maxNext := dot(l.weights[0], exp.next)
		for a := 1; a < model.NumActions; a++ {
			if v := dot(l.weights[a], exp.next); v > maxNext {
				maxNext = v
			}
		}
		td := exp.reward + l.discount*maxNext - q
		for i := range exp.state {
			l.weights[exp.action][i] += l.learningRate * td * exp.state[i]
		}
	}
	metrics.RecordReplayStep()
}

// features builds the model input: instantaneous features over the
// rolling window concatenated with the decayed trace.
func features(st *model.PolicyState) [featureDim]float64 {
	var x [featureDim]float64
	base := baseFeatures(st)
	copy(x[:baseDim], base[:])
	if st != nil {
		for i := 0; i < baseDim && i < len(st.Trace); i++ {
			x[baseDim+i] = st.Trace[i]
		}
	}
	return x
}

func baseFeatures(st *model.PolicyState) [baseDim]float64 {
	var f [baseDim]float64
	f[0] = 1 // bias
	if st == nil || len(st.History) == 0 {
		return f
	}

	var sum float64
	for _, t := range st.History {
		sum += t.Score
	}
	first := st.History[0].Score
	last := st.History[len(st.History)-1].Score

	f[1] = sum / float64(len(st.History)) / 100.0
	f[2] = last / 100.0
	f[3] = (last - first) / 100.0
	f[4] = st.Difficulty
	f[5] = float64(len(st.History)) / float64(defaultHistoryWindow)
	f[6+int(st.History[len(st.History)-1].Action)] = 1
	return f
}

// advanceTrace folds the current base features into the recurrent
// trace: trace = decay*trace + (1-decay)*features.
func advanceTrace(st *model.PolicyState, decay float64) {
	base := baseFeatures(st)
	if len(st.Trace) != baseDim {
		st.Trace = make([]float64, baseDim)
	}
	for i := range st.Trace {
		st.Trace[i] = decay*st.Trace[i] + (1-decay)*base[i]
	}
}

// difficulty estimates lesson difficulty in [0,1] from the window,
// following the original adaptive-learner heuristic.
func difficulty(history []model.Turn) float64 {
	if len(history) == 0 {
		return 0.5
	}
	var sum float64
	for _, t := range history {
		sum += t.Score
	}
	avg := sum / float64(len(history))
	switch {
	case avg >= 85:
		d := 0.5 + float64(len(history))*0.05
		if d > 1 {
			d = 1
		}
		return d
	case avg >= 70:
		return 0.5
	default:
		d := 0.5 - (70-avg)/100
		if d < 0 {
			d = 0
		}
		return d
	}
}

func dot(w [featureDim]float64, x [featureDim]float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
