// sim/simulator.go
package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds simulated time and the event loop.
// It is single-threaded: processes only run inside RunUntil, one at a time.
type Simulator struct {
	Clock float64
	// EventQueue holds every pending resumption, earliest first.
	EventQueue *EventHeap
	// EventCount is the number of events executed so far.
	EventCount int

	err error // first fatal error raised by a process
}

// NewSimulator creates a simulator with the clock at zero.
func NewSimulator() *Simulator {
	return &Simulator{
		EventQueue: NewEventHeap(),
	}
}

// Now returns the current simulated time.
func (sim *Simulator) Now() float64 {
	return sim.Clock
}

// ScheduleAfter arranges for proc to be resumed delay time units from now.
// Events scheduled for the same instant are resumed in the order they were
// scheduled.
func (sim *Simulator) ScheduleAfter(delay float64, proc Process) error {
	if delay < 0 || math.IsNaN(delay) {
		return &InvalidDurationError{Duration: delay}
	}
	sim.EventQueue.ScheduleAt(sim.Clock+delay, proc)
	return nil
}

// Abort stops the run after the current event. Only the first error is kept.
func (sim *Simulator) Abort(err error) {
	if sim.err == nil && err != nil {
		logrus.Errorf("[t=%.4f] simulation aborted: %v", sim.Clock, err)
		sim.err = err
	}
}

// Err returns the error passed to Abort, if any.
func (sim *Simulator) Err() error {
	return sim.err
}

// RunUntil executes events in time order while the next event is at or before
// stop. Processes still suspended afterwards are abandoned; that is the normal
// end of a simulation window. On return the clock reads stop, unless a process
// aborted the run.
func (sim *Simulator) RunUntil(stop float64) error {
	for sim.err == nil {
		next := sim.EventQueue.Peek()
		if next == nil || next.Timestamp() > stop {
			break
		}
		ev := sim.EventQueue.PopNext()
		// advance the clock
		sim.Clock = ev.Timestamp()
		sim.EventCount++
		logrus.Tracef("[t=%.4f] Executing %T", sim.Clock, ev)
		ev.Execute(sim)
	}
	if sim.err != nil {
		return sim.err
	}
	if sim.Clock < stop {
		sim.Clock = stop
	}
	logrus.Debugf("[t=%.4f] Simulation window ended, %d events executed, %d pending abandoned",
		sim.Clock, sim.EventCount, sim.EventQueue.Len())
	return nil
}
