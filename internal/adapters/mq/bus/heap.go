package bus

// eventHeap orders events by priority descending, then timestamp
// ascending, then arrival order so equal events stay FIFO.
type eventHeap struct {
	items []heapItem
	seq   uint64
}

type heapItem struct {
	event Event
	seq   uint64
}

func (h *eventHeap) Len() int { return len(h.items) }

func (h *eventHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.event.Priority != b.event.Priority {
		return a.event.Priority > b.event.Priority
	}
	if !a.event.TS.Equal(b.event.TS) {
		return a.event.TS.Before(b.event.TS)
	}
	return a.seq < b.seq
}

func (h *eventHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *eventHeap) Push(x any) {
	h.seq++
	h.items = append(h.items, heapItem{event: x.(Event), seq: h.seq})
}

func (h *eventHeap) Pop() any {
	n := len(h.items)
	it := h.items[n-1]
	h.items[n-1] = heapItem{}
	h.items = h.items[:n-1]
	return it.event
}
