// Package bus defines the contract for publishing and consuming
// sensory events.
//
// Events flow through a bounded priority queue ordered by priority,
// then timestamp. Emergency events never enter the queue: they travel
// on a dedicated lane the scheduler selects on first, so a full or
// busy queue can never delay a preemption.
package bus

import (
	"container/heap"
	"sync"
	"time"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// Default bus configuration constants.
const (
	defaultCapacity       = 1024
	defaultEmergencyDepth = 16

	// closeDrainGrace bounds how long the dispatcher waits for a
	// consumer to take each remaining event after Close.
	closeDrainGrace = 100 * time.Millisecond
)

// Event is the payload type flowing through the bus.
type Event = model.Event

// Bus provides non-blocking publish and channel-based consume
// semantics with a separate emergency lane.
type Bus interface {
	// Publish adds an event to the bus. Returns false if the bus is
	// full or closed and the event was not accepted.
	Publish(e Event) bool

	// Events returns a channel delivering queued events in priority
	// order. The channel is closed when the bus is closed and drained.
	Events() <-chan Event

	// Emergencies returns the dedicated high-priority lane.
	Emergencies() <-chan Event

	// Len returns the current number of queued (non-emergency) events.
	Len() int

	// Close stops the bus. Queued events are still delivered to an
	// active consumer; without one, delivery is abandoned after a
	// short grace per event.
	Close() error

	// IsClosed returns true if the bus has been closed.
	IsClosed() bool
}

// PriorityBus implements Bus with a binary heap and a buffered
// emergency channel.
type PriorityBus struct {
	mu       sync.Mutex
	queue    eventHeap
	capacity int
	closed   bool
	notify   chan struct{}

	emergencies chan Event
	out         chan Event
	outOnce     sync.Once
	stop        chan struct{}
}

// NewPriorityBus creates a bus with configuration options.
func NewPriorityBus(opts ...Option) *PriorityBus {
	b := &PriorityBus{
		capacity: defaultCapacity,
		notify:   make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.emergencies = make(chan Event, defaultEmergencyDepth)
	b.out = make(chan Event)
	b.stop = make(chan struct{})

	metrics.UpdateBusCapacity(b.capacity)
	metrics.UpdateBusDepth(0)

	return b
}

// Publish adds an event to the bus. Emergency events bypass the queue.
func (b *PriorityBus) Publish(e Event) bool {
	if e.Kind == model.KindEmergency {
		select {
		case b.emergencies <- e:
			metrics.RecordBusEmergencyBypass()
			metrics.RecordBusPublish(e.Kind.String())
			return true
		default:
			// The lane is deep enough that this only happens under a
			// storm of emergencies; the first one already preempted.
			metrics.RecordBusDrop()
			return false
		}
	}

	b.mu.Lock()
	if b.closed || b.queue.Len() >= b.capacity {
		b.mu.Unlock()
		metrics.RecordBusDrop()
		return false
	}
	heap.Push(&b.queue, e)
	depth := b.queue.Len()
	b.mu.Unlock()

	metrics.RecordBusPublish(e.Kind.String())
	metrics.UpdateBusDepth(depth)

	// Wake the dispatcher without blocking the publisher.
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return true
}

// Events returns the ordered delivery channel, starting the dispatcher
// on first call.
func (b *PriorityBus) Events() <-chan Event {
	b.outOnce.Do(func() {
		go b.dispatch()
	})
	return b.out
}

// Emergencies returns the dedicated emergency lane.
func (b *PriorityBus) Emergencies() <-chan Event {
	return b.emergencies
}

// dispatch pops the highest-priority event and hands it to the
// consumer, waiting for publishes when the queue is empty.
func (b *PriorityBus) dispatch() {
	defer close(b.out)
	for {
		b.mu.Lock()
		if b.queue.Len() == 0 {
			if b.closed {
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
			<-b.notify
			continue
		}
		e := heap.Pop(&b.queue).(Event)
		depth := b.queue.Len()
		b.mu.Unlock()

		metrics.UpdateBusDepth(depth)
		select {
		case b.out <- e:
		case <-b.stop:
			// Closed mid-handoff. A consumer that is still draining
			// gets a short grace per event; with nobody reading the
			// dispatcher exits instead of blocking forever.
			t := time.NewTimer(closeDrainGrace)
			select {
			case b.out <- e:
				t.Stop()
			case <-t.C:
				return
			}
		}
	}
}

// Len returns the current number of queued events.
func (b *PriorityBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Len()
}

// Close stops accepting events. Already queued events still drain to
// an active consumer.
func (b *PriorityBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)

	// Wake the dispatcher so it can observe closed state.
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// IsClosed returns true if the bus has been closed.
func (b *PriorityBus) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
