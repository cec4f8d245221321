package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in simulated time units), a sequence ID
// assigned when it was scheduled, and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() float64
	SeqID() uint64
	Execute(*Simulator)
}

// Process is a cooperative unit of work driven by the simulator.
// Resume runs the process until it next suspends (waiting on a Resource or
// a timer) or terminates. A process suspends simply by returning after it
// has arranged to be resumed.
type Process interface {
	Resume(*Simulator)
}

// ProcessFunc adapts a plain function to the Process interface.
type ProcessFunc func(*Simulator)

// Resume calls f(sim).
func (f ProcessFunc) Resume(sim *Simulator) {
	f(sim)
}

// ResumeEvent wakes a suspended process at its scheduled time.
type ResumeEvent struct {
	time    float64 // Simulation time of resumption
	seqID   uint64  // Insertion order, breaks timestamp ties
	Process Process // The process to resume
}

// Timestamp returns the scheduled time of the ResumeEvent.
func (e *ResumeEvent) Timestamp() float64 {
	return e.time
}

// SeqID returns the insertion sequence number of the ResumeEvent.
func (e *ResumeEvent) SeqID() uint64 {
	return e.seqID
}

// Execute resumes the process.
func (e *ResumeEvent) Execute(sim *Simulator) {
	logrus.Tracef("<< Resume %T at %.4f", e.Process, e.time)
	e.Process.Resume(sim)
}
