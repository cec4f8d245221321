// Defines the Patient struct that models one walk-in patient in the clinic.
// Tracks identity, lifecycle state and per-stage queuing times.

package sim

import (
	"fmt"
)

// JourneyState represents the lifecycle state of a patient.
type JourneyState string

const (
	StateAwaitingReception JourneyState = "awaiting_reception"
	StateWithReceptionist  JourneyState = "with_receptionist"
	StateAwaitingNurse     JourneyState = "awaiting_nurse"
	StateWithNurse         JourneyState = "with_nurse"
	StateAwaitingDoctor    JourneyState = "awaiting_doctor"
	StateWithDoctor        JourneyState = "with_doctor"
	StateTerminal          JourneyState = "terminal"
)

// Stage identifies one service point in the clinic.
type Stage int

const (
	StageReception Stage = iota
	StageNurse
	StageDoctor
	numStages
)

// String returns the resource name of the stage.
func (s Stage) String() string {
	switch s {
	case StageReception:
		return "reception"
	case StageNurse:
		return "nurse"
	case StageDoctor:
		return "doctor"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// awaiting and serving map each stage to its queueing and in-service states.
var (
	awaiting = [numStages]JourneyState{StateAwaitingReception, StateAwaitingNurse, StateAwaitingDoctor}
	serving  = [numStages]JourneyState{StateWithReceptionist, StateWithNurse, StateWithDoctor}
)

// Patient models a single patient. IDs are sequential from 1 within a run.
// Queue times start at zero and are written once, when the stage's resource
// is granted.
type Patient struct {
	ID          int
	ArrivalTime float64
	State       JourneyState

	QTimeRecep  float64
	QTimeNurse  float64
	QTimeDoctor float64
}

// NewPatient creates a patient who has just walked in.
func NewPatient(id int, arrival float64) *Patient {
	return &Patient{ID: id, ArrivalTime: arrival, State: StateAwaitingReception}
}

func (p *Patient) setQueueTime(stage Stage, wait float64) {
	switch stage {
	case StageReception:
		p.QTimeRecep = wait
	case StageNurse:
		p.QTimeNurse = wait
	case StageDoctor:
		p.QTimeDoctor = wait
	}
}

// This method returns a human-readable string representation of a Patient.
func (p Patient) String() string {
	return fmt.Sprintf("Patient: (ID: %d, State: %s, ArrivalTime: %.4f)", p.ID, p.State, p.ArrivalTime)
}
