package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/clinic-sim/sim/trace"
)

// Model is one replication of the clinic: its own simulator, resources,
// random streams and per-patient table. Models share nothing, so separate
// replications may run on separate goroutines.
type Model struct {
	Params      Params
	Replication int

	Sim       *Simulator
	RNG       *PartitionedRNG
	Reception *Resource
	Nurse     *Resource
	Doctor    *Resource
	Results   *RunResultSet

	interArrival  *Exponential
	receptionTime *Exponential
	nurseTime     *Exponential
	doctorTime    *Exponential
	routing       *Stream

	trace          *trace.SimulationTrace
	patientCounter int
	completed      int
	ran            bool
}

// NewModel validates params and builds replication number replication.
// Returns *ConfigurationError before anything is simulated when params
// cannot be run.
func NewModel(params Params, replication int) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if replication < 0 {
		return nil, &ConfigurationError{Field: "replication", Value: float64(replication), Reason: "must be non-negative"}
	}

	rng := NewPartitionedRNG(NewSimulationKey(params.Seed, replication))
	m := &Model{
		Params:      params,
		Replication: replication,
		Sim:         NewSimulator(),
		RNG:         rng,
		Reception:   NewResource(StageReception.String(), params.NumberOfReceptionists),
		Nurse:       NewResource(StageNurse.String(), params.NumberOfNurses),
		Doctor:      NewResource(StageDoctor.String(), params.NumberOfDoctors),
		Results:     NewRunResultSet(),
		routing:     rng.ForSubsystem(SubsystemRouting),
	}

	samplers := []struct {
		dst       **Exponential
		subsystem string
		mean      float64
		field     string
	}{
		{&m.interArrival, SubsystemArrivals, params.PatientInter, "patient_inter"},
		{&m.receptionTime, SubsystemReception, params.MeanReceptionTime, "mean_reception_time"},
		{&m.nurseTime, SubsystemNurse, params.MeanNurseConsultTime, "mean_n_consult_time"},
		{&m.doctorTime, SubsystemDoctor, params.MeanDoctorConsultTime, "mean_d_consult_time"},
	}
	for _, s := range samplers {
		e, err := NewExponential(rng.ForSubsystem(s.subsystem), s.mean)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.field, err)
		}
		*s.dst = e
	}
	if !params.SeparateDoctorStream {
		// Doctor consultations draw from the nurse distribution; the
		// reference trial results were produced this way.
		m.doctorTime = m.nurseTime
	}
	return m, nil
}

// SetTraceLevel turns resource tracing on or off. Call before Run.
func (m *Model) SetTraceLevel(level trace.TraceLevel) {
	if level == trace.TraceLevelNone || level == "" {
		m.trace = nil
	} else {
		m.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	}
	for _, r := range m.resources() {
		r.SetTrace(m.trace)
	}
}

// Run simulates the replication up to Params.SimDuration and summarizes it.
// A Model can only be run once.
func (m *Model) Run() (*RunResult, error) {
	if m.ran {
		return nil, fmt.Errorf("replication %d: model already run", m.Replication)
	}
	m.ran = true

	if err := m.Sim.ScheduleAfter(0, &arrivalGenerator{model: m}); err != nil {
		return nil, err
	}
	if err := m.Sim.RunUntil(m.Params.SimDuration); err != nil {
		return nil, fmt.Errorf("replication %d: %w", m.Replication, err)
	}

	result := &RunResult{
		Replication: m.Replication,
		Patients:    m.Results,
		Summary:     m.Results.Summarize(),
		Utilisation: make(map[string]float64, numStages),
		Trace:       m.trace,
	}
	for _, r := range m.resources() {
		result.Utilisation[r.Name] = r.Utilisation(m.Sim.Now())
	}
	logrus.Debugf("replication %d (key %d): %d arrivals, %d served, %d left, %d still in clinic at t=%.2f",
		m.Replication, m.RNG.Key(), m.patientCounter, result.Summary.Arrivals, m.completed,
		m.patientCounter-m.completed, m.Sim.Now())
	return result, nil
}

// PatientsCreated returns how many patients have walked in so far.
func (m *Model) PatientsCreated() int {
	return m.patientCounter
}

// PatientsCompleted returns how many patients have left the clinic.
func (m *Model) PatientsCompleted() int {
	return m.completed
}

func (m *Model) resources() []*Resource {
	return []*Resource{m.Reception, m.Nurse, m.Doctor}
}

func (m *Model) resource(s Stage) *Resource {
	switch s {
	case StageReception:
		return m.Reception
	case StageNurse:
		return m.Nurse
	default:
		return m.Doctor
	}
}

func (m *Model) serviceTime(s Stage) *Exponential {
	switch s {
	case StageReception:
		return m.receptionTime
	case StageNurse:
		return m.nurseTime
	default:
		return m.doctorTime
	}
}

// arrivalGenerator creates patients for as long as the simulation runs.
type arrivalGenerator struct {
	model *Model
}

// Resume implements Process: admit one patient, then sleep until the next.
func (g *arrivalGenerator) Resume(sim *Simulator) {
	m := g.model
	m.patientCounter++
	p := NewPatient(m.patientCounter, sim.Now())
	logrus.Debugf("[t=%.4f] arrival of patient %d", sim.Now(), p.ID)

	// The journey starts at the current instant, after this event.
	if err := sim.ScheduleAfter(0, newJourney(m, p)); err != nil {
		sim.Abort(err)
		return
	}
	if err := sim.ScheduleAfter(m.interArrival.Sample(), g); err != nil {
		sim.Abort(err)
	}
}
