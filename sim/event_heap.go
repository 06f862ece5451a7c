package sim

import "container/heap"

// EventHeap implements a priority queue with deterministic ordering.
// Ordering: timestamp → type priority (arrival before exit) → schedule order.
//
// The sequence number assigned at Schedule time makes the tie-break explicit
// instead of depending on incidental field ordering, so the full event
// sequence is reproducible for a fixed seed even on exact timestamp
// collisions.
type EventHeap struct {
	entries []heapEntry
	nextSeq uint64
}

type heapEntry struct {
	event Event
	seq   uint64
}

// NewEventHeap creates a new event heap.
func NewEventHeap() *EventHeap {
	h := &EventHeap{entries: make([]heapEntry, 0)}
	heap.Init(h)
	return h
}

// Len implements heap.Interface.
func (h *EventHeap) Len() int {
	return len(h.entries)
}

// Less implements heap.Interface with deterministic ordering.
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.entries[i], h.entries[j]

	if ei.event.Timestamp() != ej.event.Timestamp() {
		return ei.event.Timestamp() < ej.event.Timestamp()
	}

	priI := eventTypePriority[ei.event.Type()]
	priJ := eventTypePriority[ej.event.Type()]
	if priI != priJ {
		return priI < priJ
	}

	return ei.seq < ej.seq
}

// Swap implements heap.Interface.
func (h *EventHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

// Push implements heap.Interface.
func (h *EventHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(heapEntry))
}

// Pop implements heap.Interface.
func (h *EventHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	item := old[n-1]
	h.entries = old[0 : n-1]
	return item
}

// Schedule adds an event to the heap, stamping it with the next sequence number.
func (h *EventHeap) Schedule(e Event) {
	h.nextSeq++
	heap.Push(h, heapEntry{event: e, seq: h.nextSeq})
}

// PopNext removes and returns the next event, or nil if the heap is empty.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(heapEntry).event
}

// Peek returns the next event without removing it, or nil if empty.
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.entries[0].event
}
