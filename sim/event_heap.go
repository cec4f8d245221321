package sim

import "container/heap"

// EventHeap is the pending-event set of a Simulator: a binary min-heap
// ordered by timestamp, then by the order events were scheduled. The second
// key makes same-instant events FIFO and keeps runs reproducible.
type EventHeap struct {
	items   []Event
	nextSeq uint64 // last sequence ID handed out by ScheduleAt
}

// NewEventHeap creates an empty event heap.
func NewEventHeap() *EventHeap {
	return &EventHeap{}
}

func (h *EventHeap) Len() int { return len(h.items) }

func (h *EventHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.Timestamp() != b.Timestamp() {
		return a.Timestamp() < b.Timestamp()
	}
	return a.SeqID() < b.SeqID()
}

func (h *EventHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Push implements heap.Interface; use ScheduleAt instead.
func (h *EventHeap) Push(x any) {
	h.items = append(h.items, x.(Event))
}

// Pop implements heap.Interface; use PopNext instead.
func (h *EventHeap) Pop() any {
	n := len(h.items)
	last := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	return last
}

// ScheduleAt queues a resumption of proc at time at, stamped with the next
// sequence ID, and returns the event.
func (h *EventHeap) ScheduleAt(at float64, proc Process) *ResumeEvent {
	h.nextSeq++
	ev := &ResumeEvent{time: at, seqID: h.nextSeq, Process: proc}
	heap.Push(h, ev)
	return ev
}

// PopNext removes and returns the earliest event, or nil when empty.
func (h *EventHeap) PopNext() Event {
	if len(h.items) == 0 {
		return nil
	}
	return heap.Pop(h).(Event)
}

// Peek returns the earliest event without removing it, or nil when empty.
func (h *EventHeap) Peek() Event {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}
