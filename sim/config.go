package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Params groups every input of a clinic model run. Time values share one
// unit (minutes in the reference configuration).
type Params struct {
	PatientInter          float64 `yaml:"patient_inter"`           // mean inter-arrival time
	MeanReceptionTime     float64 `yaml:"mean_reception_time"`     // mean time with the receptionist
	MeanNurseConsultTime  float64 `yaml:"mean_n_consult_time"`     // mean time with the nurse
	MeanDoctorConsultTime float64 `yaml:"mean_d_consult_time"`     // mean time with the doctor (see SeparateDoctorStream)
	NumberOfReceptionists int     `yaml:"number_of_receptionists"` // reception capacity
	NumberOfNurses        int     `yaml:"number_of_nurses"`        // nurse capacity
	NumberOfDoctors       int     `yaml:"number_of_doctors"`       // doctor capacity
	ProbSeeingDoctor      float64 `yaml:"prob_seeing_doctor"`      // in [0,1]
	SimDuration           float64 `yaml:"sim_duration"`            // horizon of each replication
	NumberOfRuns          int     `yaml:"number_of_runs"`          // replications per trial
	Seed                  int64   `yaml:"seed"`                    // replication r uses key Seed+r

	// SeparateDoctorStream samples doctor consultations from their own stream
	// with MeanDoctorConsultTime. When false (default) doctor consultations
	// reuse the nurse distribution, which the reference results depend on.
	SeparateDoctorStream bool `yaml:"separate_doctor_stream"`
}

// DefaultParams returns the reference clinic configuration.
func DefaultParams() Params {
	return Params{
		PatientInter:          5,
		MeanReceptionTime:     2,
		MeanNurseConsultTime:  6,
		MeanDoctorConsultTime: 20,
		NumberOfReceptionists: 1,
		NumberOfNurses:        1,
		NumberOfDoctors:       2,
		ProbSeeingDoctor:      0.6,
		SimDuration:           600,
		NumberOfRuns:          100,
	}
}

// Validate returns a *ConfigurationError for the first unusable parameter.
func (p Params) Validate() error {
	positive := []struct {
		name string
		val  float64
	}{
		{"patient_inter", p.PatientInter},
		{"mean_reception_time", p.MeanReceptionTime},
		{"mean_n_consult_time", p.MeanNurseConsultTime},
		{"mean_d_consult_time", p.MeanDoctorConsultTime},
		{"sim_duration", p.SimDuration},
	}
	for _, f := range positive {
		if err := validateFinitePositive(f.name, f.val); err != nil {
			return err
		}
	}
	capacities := []struct {
		name string
		val  int
	}{
		{"number_of_receptionists", p.NumberOfReceptionists},
		{"number_of_nurses", p.NumberOfNurses},
		{"number_of_doctors", p.NumberOfDoctors},
	}
	for _, c := range capacities {
		if c.val < 1 {
			return &ConfigurationError{Field: c.name, Value: float64(c.val), Reason: "must be at least 1"}
		}
	}
	if math.IsNaN(p.ProbSeeingDoctor) || p.ProbSeeingDoctor < 0 || p.ProbSeeingDoctor > 1 {
		return &ConfigurationError{Field: "prob_seeing_doctor", Value: p.ProbSeeingDoctor, Reason: "must be in [0, 1]"}
	}
	if p.NumberOfRuns < 1 {
		return &ConfigurationError{Field: "number_of_runs", Value: float64(p.NumberOfRuns), Reason: "must be at least 1"}
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return &ConfigurationError{Field: name, Value: val, Reason: "must be a finite number"}
	}
	if val <= 0 {
		return &ConfigurationError{Field: name, Value: val, Reason: "must be positive"}
	}
	return nil
}

// LoadParams reads a YAML parameter file on top of DefaultParams.
// Uses strict parsing: unrecognized keys (typos) are rejected.
// The result is not validated; call Validate or let NewTrial do it.
func LoadParams(path string) (Params, error) {
	params := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("reading params: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		return params, fmt.Errorf("parsing params: %w", err)
	}
	return params, nil
}
