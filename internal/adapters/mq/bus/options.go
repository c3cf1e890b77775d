package bus

// Option applies a configuration option to the PriorityBus.
type Option func(*PriorityBus)

// WithCapacity bounds the number of queued events.
func WithCapacity(capacity int) Option {
	return func(b *PriorityBus) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}
