// Collects per-patient results within a run and reduces them to run-level
// summary statistics.

package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/clinic-sim/sim/trace"
)

// StageTimes holds what one patient experienced at one stage.
// Recorded is false for stages the patient never reached.
type StageTimes struct {
	Wait     float64
	Service  float64
	Recorded bool
}

// PatientRecord is one row of the per-patient table.
type PatientRecord struct {
	ID     int
	Stages [numStages]StageTimes
}

// Stage returns the times recorded for stage s.
func (r PatientRecord) Stage(s Stage) StageTimes {
	return r.Stages[s]
}

// RunResultSet is the per-patient table of one run. A row appears when a
// patient is first served and each stage cell is written once. It is owned
// by a single Model.
type RunResultSet struct {
	rows  map[int]*PatientRecord
	order []int // IDs in insertion order
}

// NewRunResultSet creates an empty result set.
func NewRunResultSet() *RunResultSet {
	return &RunResultSet{rows: make(map[int]*PatientRecord)}
}

// Record stores the wait and service time of patient id at stage.
// Panics if the stage was already recorded for that patient, or if a time
// is negative; both mean the journey state machine is broken.
func (rs *RunResultSet) Record(id int, stage Stage, wait, service float64) {
	if wait < 0 || service < 0 {
		panic(fmt.Sprintf("Record: patient %d %s: negative time (wait=%v, service=%v)", id, stage, wait, service))
	}
	row, ok := rs.rows[id]
	if !ok {
		row = &PatientRecord{ID: id}
		rs.rows[id] = row
		rs.order = append(rs.order, id)
	}
	if row.Stages[stage].Recorded {
		panic(fmt.Sprintf("Record: patient %d %s recorded twice", id, stage))
	}
	row.Stages[stage] = StageTimes{Wait: wait, Service: service, Recorded: true}
}

// Len returns the number of patients in the table.
func (rs *RunResultSet) Len() int {
	return len(rs.order)
}

// Records returns a copy of all rows in ascending patient ID order.
func (rs *RunResultSet) Records() []PatientRecord {
	out := make([]PatientRecord, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, *rs.rows[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Waits returns the recorded wait times of stage in ascending patient ID order.
func (rs *RunResultSet) Waits(stage Stage) []float64 {
	var waits []float64
	for _, r := range rs.Records() {
		if st := r.Stages[stage]; st.Recorded {
			waits = append(waits, st.Wait)
		}
	}
	return waits
}

// RunSummary is one row of the trial table.
type RunSummary struct {
	Arrivals        int     // patients in the per-patient table
	MeanQTimeRecep  float64 // NaN when no patient was served at reception
	MeanQTimeNurse  float64 // NaN when no patient reached a nurse
	MeanQTimeDoctor float64 // NaN when no patient reached a doctor
}

// Summarize computes the mean queuing time of each stage over the patients
// that recorded it. Empty columns produce NaN.
func (rs *RunResultSet) Summarize() RunSummary {
	return RunSummary{
		Arrivals:        rs.Len(),
		MeanQTimeRecep:  stat.Mean(rs.Waits(StageReception), nil),
		MeanQTimeNurse:  stat.Mean(rs.Waits(StageNurse), nil),
		MeanQTimeDoctor: stat.Mean(rs.Waits(StageDoctor), nil),
	}
}

// patientHeader is the per-patient CSV header.
var patientHeader = []string{
	"Patient ID",
	"Q Time Recep", "Time with Recep",
	"Q Time Nurse", "Time with Nurse",
	"Q Time Doctor", "Time with Doctor",
}

// WriteCSV writes the per-patient table in ascending ID order.
// Stages a patient never reached are left empty.
func (rs *RunResultSet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(patientHeader); err != nil {
		return fmt.Errorf("writing patient header: %w", err)
	}
	for _, r := range rs.Records() {
		row := []string{strconv.Itoa(r.ID)}
		for _, st := range r.Stages {
			if st.Recorded {
				row = append(row, formatFloat(st.Wait), formatFloat(st.Service))
			} else {
				row = append(row, "", "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing patient %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RunResult is everything a Model run produces.
type RunResult struct {
	Replication int
	Patients    *RunResultSet
	Summary     RunSummary
	// Utilisation maps resource name to the mean fraction of its capacity
	// held over the simulation window.
	Utilisation map[string]float64
	// Trace is nil unless the model was created with a trace level other than none.
	Trace *trace.SimulationTrace
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
