// Package trace provides resource-trace recording for clinic model runs.
// It stores plain data types and does not import sim/.
package trace

// GrantRecord captures one unit of a resource being assigned to a holder.
type GrantRecord struct {
	Resource  string
	Clock     float64
	Holder    int
	RequestID uint64  // per-resource request order
	QueuedAt  float64 // when the holder asked for the unit
	InUse     int     // units held right after the grant, this one included
	Capacity  int
	QueueLen  int // requests still waiting right after the grant
}

// Wait returns how long the holder queued for the unit.
func (g GrantRecord) Wait() float64 {
	return g.Clock - g.QueuedAt
}

// ReleaseRecord captures a holder giving a unit back.
type ReleaseRecord struct {
	Resource  string
	Clock     float64
	Holder    int
	RequestID uint64
	HandedOff bool // the unit went straight to the next queued request
}
