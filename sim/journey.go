package sim

import "github.com/sirupsen/logrus"

// journey walks one patient through reception, nurse and, with probability
// ProbSeeingDoctor, a doctor. It is an explicit state machine over
// Patient.State; each Resume runs until the patient queues behind a busy
// resource, starts a service period, or leaves.
//
// A held request is released in the same Resume that observes the end of its
// service period, or before aborting when the service period cannot be
// scheduled. A journey still suspended at the horizon is simply never resumed.
type journey struct {
	model   *Model
	patient *Patient
	stage   Stage
	req     *Request
}

func newJourney(m *Model, p *Patient) *journey {
	return &journey{model: m, patient: p, stage: StageReception}
}

// Resume implements Process.
func (j *journey) Resume(sim *Simulator) {
	for {
		switch j.patient.State {
		case StateAwaitingReception, StateAwaitingNurse, StateAwaitingDoctor:
			if j.req == nil {
				req, granted := j.model.resource(j.stage).Request(sim, j.patient.ID, j)
				j.req = req
				if !granted {
					return // resumed by Release when the unit is handed over
				}
			}
			j.patient.State = serving[j.stage]
			j.startService(sim)
			return

		case StateWithReceptionist, StateWithNurse, StateWithDoctor:
			j.req.Release(sim)
			j.req = nil
			j.advance()

		case StateTerminal:
			j.model.completed++
			logrus.Debugf("[t=%.4f] patient %d left after %.4f", sim.Now(), j.patient.ID, sim.Now()-j.patient.ArrivalTime)
			return

		default:
			panic("journey: unknown state " + string(j.patient.State))
		}
	}
}

// startService records the queuing time of the current stage, samples how
// long the patient is served and suspends for that long.
func (j *journey) startService(sim *Simulator) {
	wait := j.req.GrantedAt - j.req.QueuedAt
	j.patient.setQueueTime(j.stage, wait)
	service := j.model.serviceTime(j.stage).Sample()
	j.model.Results.Record(j.patient.ID, j.stage, wait, service)
	logrus.Debugf("[t=%.4f] patient %d with %s after %.4f wait, service %.4f",
		sim.Now(), j.patient.ID, j.stage, wait, service)
	if err := sim.ScheduleAfter(service, j); err != nil {
		j.req.Release(sim)
		sim.Abort(err)
	}
}

// advance picks the state after the current stage's service ends.
func (j *journey) advance() {
	switch j.stage {
	case StageReception:
		j.stage = StageNurse
		j.patient.State = awaiting[StageNurse]
	case StageNurse:
		if j.model.routing.Uniform() < j.model.Params.ProbSeeingDoctor {
			j.stage = StageDoctor
			j.patient.State = awaiting[StageDoctor]
		} else {
			j.patient.State = StateTerminal
		}
	default:
		j.patient.State = StateTerminal
	}
}
