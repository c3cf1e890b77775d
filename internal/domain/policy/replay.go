package policy

import (
	"math/rand"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
)

// experience is one (state, action, reward, next_state) tuple.
type experience struct {
	state  [featureDim]float64
	action model.Action
	reward float64
	next   [featureDim]float64
}

// replayBuffer is a bounded ring of past experiences sampled uniformly
// to decorrelate sequential updates. Callers hold the learner's locks;
// the buffer itself is not synchronized.
type replayBuffer struct {
	buf  []experience
	next int
	full bool
}

func newReplayBuffer(capacity int) *replayBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &replayBuffer{buf: make([]experience, capacity)}
}

func (b *replayBuffer) add(e experience) {
	b.buf[b.next] = e
	b.next++
	if b.next == len(b.buf) {
		b.next = 0
		b.full = true
	}
}

func (b *replayBuffer) len() int {
	if b.full {
		return len(b.buf)
	}
	return b.next
}

// sample draws n experiences uniformly with replacement. Returns nil
// when the buffer is empty.
func (b *replayBuffer) sample(rng *rand.Rand, n int) []experience {
	size := b.len()
	if size == 0 || n < 1 {
		return nil
	}
	if n > size {
		n = size
	}
	out := make([]experience, n)
	for i := range out {
		out[i] = b.buf[rng.Intn(size)]
	}
	return out
}
