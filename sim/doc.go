// Package sim provides the discrete-event simulation engine for a walk-in
// clinic: patients arrive, see a receptionist, then a nurse, and some go on
// to see a doctor.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - simulator.go: the event loop (ScheduleAfter, RunUntil) and the clock
//   - resource.go: finite-capacity servers with FIFO queues
//   - journey.go: the per-patient state machine driven by the event loop
//   - model.go: one replication (resources, random streams, arrivals)
//   - trial.go: many replications reduced to a trial table
//
// # Processes
//
// Processes are explicit state machines implementing Process. The simulator
// resumes one process at a time; a process suspends by returning after it
// has either scheduled its own resumption (ScheduleAfter) or queued on a
// Resource, which resumes it when a unit is handed over. Events at the same
// instant run in the order they were scheduled, so a run is fully determined
// by its Params and replication number.
//
// # Randomness
//
// Each replication owns a PartitionedRNG keyed by Params.Seed plus the
// replication number. Arrivals, each service stage and the doctor routing
// decision draw from separate named streams, so changing how often one
// stream is used does not shift the others.
//
// # Outputs
//
// A Model run yields a RunResultSet (one row per patient) and its
// RunSummary. A Trial collects one RunSummary per replication into a
// TrialResultSet. Both tables can be written as CSV.
package sim
