package model

import "time"

// Turn is one realized (action, score) pair in a student's history.
type Turn struct {
	Action Action    `json:"action"`
	Score  float64   `json:"score"`
	TS     time.Time `json:"ts"`
}

// PolicyState is the per-student learning state. It is mutated only by
// the policy learner, which serializes writers per student and swaps in
// a fresh copy so concurrent readers never observe partial state.
//
// Trace is the opaque recurrent state: an exponentially decayed feature
// trace carried from turn to turn. It is serialized with the snapshot
// and can be re-derived by replaying History into a zeroed trace.
type PolicyState struct {
	StudentID  string    `json:"student_id"`
	History    []Turn    `json:"history"`
	Trace      []float64 `json:"trace"`
	Difficulty float64   `json:"difficulty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy safe to mutate while readers hold the
// original.
func (s *PolicyState) Clone() *PolicyState {
	if s == nil {
		return nil
	}
	c := *s
	c.History = make([]Turn, len(s.History))
	copy(c.History, s.History)
	c.Trace = make([]float64, len(s.Trace))
	copy(c.Trace, s.Trace)
	return &c
}

// LastTurn returns the most recent turn and whether one exists.
func (s *PolicyState) LastTurn() (Turn, bool) {
	if s == nil || len(s.History) == 0 {
		return Turn{}, false
	}
	return s.History[len(s.History)-1], true
}
