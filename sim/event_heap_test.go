package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noopProcess = ProcessFunc(func(*Simulator) {})

func TestEventHeap_OrdersByTimestamp(t *testing.T) {
	h := NewEventHeap()
	h.ScheduleAt(30, noopProcess)
	h.ScheduleAt(10, noopProcess)
	h.ScheduleAt(20, noopProcess)

	var got []float64
	for h.Len() > 0 {
		got = append(got, h.PopNext().Timestamp())
	}
	assert.Equal(t, []float64{10, 20, 30}, got)
}

func TestEventHeap_SameTimestamp_FIFOByScheduleOrder(t *testing.T) {
	// GIVEN events at two instants scheduled interleaved
	h := NewEventHeap()
	var scheduled []*ResumeEvent
	for _, at := range []float64{7, 3, 7, 3, 7} {
		scheduled = append(scheduled, h.ScheduleAt(at, noopProcess))
	}

	// WHEN popped
	var got []Event
	for h.Len() > 0 {
		got = append(got, h.PopNext())
	}

	// THEN earlier instants come first, and each instant keeps schedule order
	want := []Event{scheduled[1], scheduled[3], scheduled[0], scheduled[2], scheduled[4]}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Same(t, want[i], got[i], "position %d", i)
	}
}

func TestEventHeap_ScheduleAt_AssignsIncreasingSeqIDs(t *testing.T) {
	h := NewEventHeap()
	a := h.ScheduleAt(5, noopProcess)
	b := h.ScheduleAt(5, noopProcess)
	c := h.ScheduleAt(1, noopProcess)

	assert.Less(t, a.SeqID(), b.SeqID())
	assert.Less(t, b.SeqID(), c.SeqID())
	assert.Same(t, c, h.PopNext())
	assert.Same(t, a, h.PopNext())
	assert.Same(t, b, h.PopNext())
}

func TestEventHeap_Empty(t *testing.T) {
	h := NewEventHeap()
	assert.Nil(t, h.Peek())
	assert.Nil(t, h.PopNext())
}

func TestEventHeap_PeekDoesNotRemove(t *testing.T) {
	h := NewEventHeap()
	ev := h.ScheduleAt(1, noopProcess)
	require.NotNil(t, h.Peek())
	assert.Equal(t, 1, h.Len())
	assert.Same(t, ev, h.PopNext())
	assert.Equal(t, 0, h.Len())
}
