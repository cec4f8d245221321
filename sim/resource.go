package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/clinic-sim/sim/trace"
)

// Resource models a pool of identical servers (receptionists, nurses,
// doctors) with a FIFO wait queue.
//
// Invariants:
//   - held never exceeds capacity
//   - blocked requests are granted strictly in the order they queued
type Resource struct {
	Name     string
	capacity int
	held     int
	waitQ    WaitQueue

	grants      int
	peakQueue   int
	busyTime    float64 // integral of held over time, up to lastChange
	lastChange  float64
	trace       *trace.SimulationTrace
	nextRequest uint64
}

// NewResource creates a resource with the given capacity.
// Panics if capacity < 1; Params.Validate rejects that earlier.
func NewResource(name string, capacity int) *Resource {
	if capacity < 1 {
		panic(fmt.Sprintf("NewResource(%s): capacity must be >= 1, got %d", name, capacity))
	}
	return &Resource{Name: name, capacity: capacity}
}

// SetTrace attaches a trace that receives every grant and release.
// A nil trace disables recording.
func (r *Resource) SetTrace(t *trace.SimulationTrace) {
	r.trace = t
}

// Request is a handle on one unit of a Resource, held from grant to Release.
type Request struct {
	ID        uint64  // per-resource, in request order
	Holder    int     // caller identity, e.g. patient ID
	QueuedAt  float64 // time the request was made
	GrantedAt float64 // time a unit was assigned; valid once Granted

	res      *Resource
	proc     Process
	granted  bool
	released bool
}

// Granted reports whether a unit has been assigned to the request.
func (req *Request) Granted() bool {
	return req.granted
}

// Request asks for one unit on behalf of holder. If a unit is free it is
// granted immediately and Request returns true; the caller keeps running.
// Otherwise the request joins the back of the queue, Request returns false,
// and proc is resumed once the unit is handed over.
func (r *Resource) Request(sim *Simulator, holder int, proc Process) (*Request, bool) {
	r.nextRequest++
	req := &Request{
		ID:       r.nextRequest,
		Holder:   holder,
		QueuedAt: sim.Now(),
		res:      r,
		proc:     proc,
	}
	if r.held < r.capacity {
		r.accrue(sim.Now())
		r.held++
		r.grant(sim, req)
		return req, true
	}
	r.waitQ.Enqueue(req)
	r.peakQueue = max(r.peakQueue, r.waitQ.Len())
	logrus.Debugf("[t=%.4f] %s busy (%d/%d), holder %d queued at position %d",
		sim.Now(), r.Name, r.held, r.capacity, holder, r.waitQ.Len())
	return req, false
}

// Release returns the unit. When requests are waiting, the unit passes
// straight to the head of the queue within the same time step and that
// request's process is scheduled to resume now. Releasing twice, or
// releasing a request that was never granted, is a no-op.
func (req *Request) Release(sim *Simulator) {
	if req.released || !req.granted {
		return
	}
	req.released = true
	r := req.res
	handOff := r.waitQ.Len() > 0
	r.recordRelease(sim.Now(), req, handOff)
	if !handOff {
		r.accrue(sim.Now())
		r.held--
		return
	}
	next := r.waitQ.Dequeue()
	r.grant(sim, next)
	if err := sim.ScheduleAfter(0, next.proc); err != nil {
		sim.Abort(err)
	}
}

func (r *Resource) grant(sim *Simulator, req *Request) {
	req.granted = true
	req.GrantedAt = sim.Now()
	r.grants++
	if r.trace != nil && r.trace.Config.Level == trace.TraceLevelResources {
		r.trace.RecordGrant(trace.GrantRecord{
			Resource:  r.Name,
			Clock:     req.GrantedAt,
			Holder:    req.Holder,
			RequestID: req.ID,
			QueuedAt:  req.QueuedAt,
			InUse:     r.held,
			Capacity:  r.capacity,
			QueueLen:  r.waitQ.Len(),
		})
	}
}

func (r *Resource) recordRelease(now float64, req *Request, handOff bool) {
	if r.trace == nil || r.trace.Config.Level != trace.TraceLevelResources {
		return
	}
	r.trace.RecordRelease(trace.ReleaseRecord{
		Resource:  r.Name,
		Clock:     now,
		Holder:    req.Holder,
		RequestID: req.ID,
		HandedOff: handOff,
	})
}

// accrue folds busy time since the last occupancy change into busyTime.
func (r *Resource) accrue(now float64) {
	r.busyTime += float64(r.held) * (now - r.lastChange)
	r.lastChange = now
}

// Capacity returns the number of units.
func (r *Resource) Capacity() int { return r.capacity }

// InUse returns the number of units currently held.
func (r *Resource) InUse() int { return r.held }

// QueueLen returns the number of blocked requests.
func (r *Resource) QueueLen() int { return r.waitQ.Len() }

// Grants returns how many requests have been granted a unit.
func (r *Resource) Grants() int { return r.grants }

// PeakQueueLen returns the longest the wait queue has been.
func (r *Resource) PeakQueueLen() int { return r.peakQueue }

// Utilisation returns the mean fraction of capacity held over [0, now].
// Returns 0 when now <= 0.
func (r *Resource) Utilisation(now float64) float64 {
	if now <= 0 {
		return 0
	}
	busy := r.busyTime + float64(r.held)*(now-r.lastChange)
	return busy / (float64(r.capacity) * now)
}
