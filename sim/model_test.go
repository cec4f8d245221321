package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/clinic-sim/sim/internal/testutil"
	"github.com/inference-sim/clinic-sim/sim/trace"
)

func TestNewModel_InvalidParams_ConfigurationError(t *testing.T) {
	p := testParams()
	p.SimDuration = 0
	_, err := NewModel(p, 0)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "sim_duration", cfgErr.Field)

	_, err = NewModel(testParams(), -1)
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "replication", cfgErr.Field)
}

func TestModel_Run_Deterministic(t *testing.T) {
	// GIVEN the same params and replication number twice
	_, a := runModel(t, testParams(), 3)
	_, b := runModel(t, testParams(), 3)

	// THEN the per-patient tables are byte-identical
	assert.Equal(t, csvBytes(t, a.Patients.WriteCSV), csvBytes(t, b.Patients.WriteCSV))
	assert.Equal(t, a.Trace.Grants, b.Trace.Grants)
}

func TestModel_Run_PinnedFirstPatients(t *testing.T) {
	// GIVEN the reference configuration, replication 0
	_, res := runModel(t, DefaultParams(), 0)
	recs := res.Patients.Records()
	require.GreaterOrEqual(t, len(recs), 2)

	// THEN the first two patients see exactly these waits and service times
	want := []PatientRecord{
		{ID: 1, Stages: [numStages]StageTimes{
			{Wait: 0, Service: 1.2912122282237237, Recorded: true},
			{Wait: 0, Service: 12.895672410980076, Recorded: true},
		}},
		{ID: 2, Stages: [numStages]StageTimes{
			{Wait: 0, Service: 1.0789150510426107, Recorded: true},
			{Wait: 11.444068849783067, Service: 1.9735049094486061, Recorded: true},
			{Wait: 0, Service: 1.5854725486904238, Recorded: true},
		}},
	}
	for i, w := range want {
		got := recs[i]
		assert.Equal(t, w.ID, got.ID)
		for s := StageReception; s < numStages; s++ {
			assert.Equal(t, w.Stages[s].Recorded, got.Stages[s].Recorded, "patient %d %s", w.ID, s)
			testutil.AssertFloat64Equal(t, "wait", w.Stages[s].Wait, got.Stages[s].Wait, 1e-12)
			testutil.AssertFloat64Equal(t, "service", w.Stages[s].Service, got.Stages[s].Service, 1e-12)
		}
	}
	assert.Equal(t, 109, res.Summary.Arrivals)
}

func TestModel_Run_ReplicationsDiffer(t *testing.T) {
	_, a := runModel(t, testParams(), 0)
	_, b := runModel(t, testParams(), 1)
	assert.NotEqual(t, csvBytes(t, a.Patients.WriteCSV), csvBytes(t, b.Patients.WriteCSV))
}

func TestModel_Run_Twice_Errors(t *testing.T) {
	m, _ := runModel(t, testParams(), 0)
	_, err := m.Run()
	assert.Error(t, err)
}

func TestModel_Run_RowsFollowJourneyOrder(t *testing.T) {
	m, res := runModel(t, testParams(), 2)
	recs := res.Patients.Records()
	require.NotEmpty(t, recs)

	assert.LessOrEqual(t, res.Summary.Arrivals, m.PatientsCreated())
	assert.LessOrEqual(t, m.PatientsCompleted(), res.Summary.Arrivals)

	for i, r := range recs {
		// reception is FIFO and patients queue in arrival order
		assert.Equal(t, i+1, r.ID)
		assert.True(t, r.Stage(StageReception).Recorded, "patient %d", r.ID)
		if r.Stage(StageNurse).Recorded {
			assert.True(t, r.Stage(StageReception).Recorded)
		}
		if r.Stage(StageDoctor).Recorded {
			assert.True(t, r.Stage(StageNurse).Recorded, "patient %d saw a doctor without a nurse", r.ID)
		}
		for s := StageReception; s < numStages; s++ {
			st := r.Stage(s)
			if !st.Recorded {
				continue
			}
			assert.GreaterOrEqual(t, st.Wait, 0.0)
			assert.Greater(t, st.Service, 0.0)
		}
	}
}

func TestModel_Run_CapacityAndFIFOHold(t *testing.T) {
	p := testParams()
	p.NumberOfDoctors = 1
	p.ProbSeeingDoctor = 0.9
	_, res := runModel(t, p, 5)

	lastID := make(map[string]uint64)
	for _, g := range res.Trace.Grants {
		assert.LessOrEqual(t, g.InUse, g.Capacity, "%s over capacity at t=%v", g.Resource, g.Clock)
		assert.Greater(t, g.RequestID, lastID[g.Resource], "%s granted out of request order", g.Resource)
		lastID[g.Resource] = g.RequestID
		assert.GreaterOrEqual(t, g.Wait(), 0.0)
	}
	summary := trace.Summarize(res.Trace)
	assert.Equal(t, []string{"doctor", "nurse", "reception"}, summary.ResourceNames())
}

func TestModel_Run_ProbZero_NoDoctorVisits(t *testing.T) {
	p := testParams()
	p.ProbSeeingDoctor = 0
	m, res := runModel(t, p, 0)

	assert.Equal(t, uint64(0), m.Doctor.nextRequest)
	assert.Equal(t, 0, m.Doctor.Grants())
	assert.True(t, math.IsNaN(res.Summary.MeanQTimeDoctor))
	assert.Equal(t, 0.0, res.Utilisation["doctor"])
	for _, r := range res.Patients.Records() {
		assert.False(t, r.Stage(StageDoctor).Recorded)
	}
}

func TestModel_Run_ProbOne_EveryNurseLeaverSeesDoctor(t *testing.T) {
	p := testParams()
	p.ProbSeeingDoctor = 1
	m, res := runModel(t, p, 0)

	nurseReleases := 0
	for _, r := range res.Trace.Releases {
		if r.Resource == "nurse" {
			nurseReleases++
		}
	}
	require.Greater(t, nurseReleases, 0)
	assert.Equal(t, uint64(nurseReleases), m.Doctor.nextRequest)
}

func TestModel_Run_AmpleCapacity_NoWaiting(t *testing.T) {
	p := testParams()
	p.NumberOfReceptionists = 1000
	p.NumberOfNurses = 1000
	p.NumberOfDoctors = 1000
	_, res := runModel(t, p, 0)

	assert.Equal(t, 0.0, res.Summary.MeanQTimeRecep)
	assert.Equal(t, 0.0, res.Summary.MeanQTimeNurse)
	for _, g := range res.Trace.Grants {
		assert.Equal(t, 0, g.QueueLen)
	}
}

func TestModel_Run_UtilisationInUnitRange(t *testing.T) {
	_, res := runModel(t, testParams(), 1)
	require.Len(t, res.Utilisation, 3)
	for name, u := range res.Utilisation {
		assert.GreaterOrEqual(t, u, 0.0, name)
		assert.LessOrEqual(t, u, 1.0, name)
	}
	// a single nurse is overloaded at the reference arrival rate
	assert.Greater(t, res.Utilisation["nurse"], 0.5)
}

func TestModel_SeparateDoctorStream_UsesDoctorMean(t *testing.T) {
	meanDoctorService := func(separate bool) float64 {
		p := DefaultParams()
		p.SimDuration = 6000
		p.ProbSeeingDoctor = 1
		p.NumberOfNurses = 100
		p.NumberOfDoctors = 100
		p.SeparateDoctorStream = separate
		_, res := runModel(t, p, 0)
		sum, n := 0.0, 0
		for _, r := range res.Patients.Records() {
			if st := r.Stage(StageDoctor); st.Recorded {
				sum += st.Service
				n++
			}
		}
		require.Greater(t, n, 500)
		return sum / float64(n)
	}

	assert.InDelta(t, 6.0, meanDoctorService(false), 1.5, "doctor reuses the nurse distribution")
	assert.InDelta(t, 20.0, meanDoctorService(true), 4.0)
}

func TestModel_TraceLevelNone_NoTrace(t *testing.T) {
	m, err := NewModel(testParams(), 0)
	require.NoError(t, err)
	m.SetTraceLevel(trace.TraceLevelNone)
	res, err := m.Run()
	require.NoError(t, err)
	assert.Nil(t, res.Trace)
}
