package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/clinic-sim/sim"
	"github.com/inference-sim/clinic-sim/sim/trace"
)

var (
	// CLI flags for clinic parameters
	configPath            string  // YAML parameter file
	patientInter          float64 // Mean inter-arrival time
	meanReceptionTime     float64 // Mean time with the receptionist
	meanNurseConsultTime  float64 // Mean time with the nurse
	meanDoctorConsultTime float64 // Mean time with the doctor
	numberOfReceptionists int     // Reception capacity
	numberOfNurses        int     // Nurse capacity
	numberOfDoctors       int     // Doctor capacity
	probSeeingDoctor      float64 // Probability a patient goes on to a doctor
	simDuration           float64 // Simulation horizon of each replication
	numberOfRuns          int     // Replications per trial
	seed                  int64   // Base seed; replication r uses seed+r
	separateDoctorStream  bool    // Sample doctor consultations from their own stream

	// CLI flags for execution and output
	logLevel    string // Log verbosity level
	replication int    // Replication index for `run`
	workers     int    // Concurrent replications for `trial`
	resultsPath string // CSV output path ("" = none)
	traceLevel  string // Resource trace level for `run`
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "clinic-sim",
	Short: "Discrete-event simulator for a walk-in clinic",
}

// runCmd simulates a single replication and prints its per-patient table
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one replication and report per-patient results",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		params := resolveParams(cmd)
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		logrus.Infof("Starting replication %d with %+v", replication, params)
		startTime := time.Now()

		model, err := sim.NewModel(params, replication)
		if err != nil {
			logrus.Fatalf("Cannot build model: %v", err)
		}
		model.SetTraceLevel(trace.TraceLevel(traceLevel))
		res, err := model.Run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		printRunResult(os.Stdout, res)
		if resultsPath != "" {
			if err := saveCSV(resultsPath, res.Patients.WriteCSV); err != nil {
				logrus.Fatalf("Cannot save results: %v", err)
			}
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// trialCmd runs every replication and prints the trial table
var trialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Run a batch of replications and report per-replication means",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		params := resolveParams(cmd)

		t, err := sim.NewTrial(params)
		if err != nil {
			logrus.Fatalf("Cannot build trial: %v", err)
		}
		t.Workers = workers

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		results, err := t.Run(ctx)
		if err != nil {
			logrus.Fatalf("Trial failed: %v", err)
		}

		results.Print(os.Stdout)
		if resultsPath != "" {
			if err := saveCSV(resultsPath, results.WriteCSV); err != nil {
				logrus.Fatalf("Cannot save results: %v", err)
			}
		}
	},
}

// setupLogging applies the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveParams starts from the --config file (or the defaults) and applies
// every parameter flag given explicitly on the command line.
func resolveParams(cmd *cobra.Command) sim.Params {
	params := sim.DefaultParams()
	if configPath != "" {
		loaded, err := sim.LoadParams(configPath)
		if err != nil {
			logrus.Fatalf("Cannot load config: %v", err)
		}
		params = loaded
	}
	applyParamFlags(cmd, &params)
	return params
}

// applyParamFlags overwrites the fields whose flags were set explicitly.
func applyParamFlags(cmd *cobra.Command, p *sim.Params) {
	flags := cmd.Flags()
	if flags.Changed("patient-inter") {
		p.PatientInter = patientInter
	}
	if flags.Changed("mean-reception-time") {
		p.MeanReceptionTime = meanReceptionTime
	}
	if flags.Changed("mean-nurse-time") {
		p.MeanNurseConsultTime = meanNurseConsultTime
	}
	if flags.Changed("mean-doctor-time") {
		p.MeanDoctorConsultTime = meanDoctorConsultTime
	}
	if flags.Changed("receptionists") {
		p.NumberOfReceptionists = numberOfReceptionists
	}
	if flags.Changed("nurses") {
		p.NumberOfNurses = numberOfNurses
	}
	if flags.Changed("doctors") {
		p.NumberOfDoctors = numberOfDoctors
	}
	if flags.Changed("prob-doctor") {
		p.ProbSeeingDoctor = probSeeingDoctor
	}
	if flags.Changed("duration") {
		p.SimDuration = simDuration
	}
	if flags.Changed("runs") {
		p.NumberOfRuns = numberOfRuns
	}
	if flags.Changed("seed") {
		p.Seed = seed
	}
	if flags.Changed("separate-doctor-stream") {
		p.SeparateDoctorStream = separateDoctorStream
	}
}

// printRunResult displays the per-patient table and run summary.
func printRunResult(w io.Writer, res *sim.RunResult) {
	fmt.Fprintf(w, "=== Replication %d: Patient Results ===\n", res.Replication)
	fmt.Fprintf(w, "%10s %12s %12s %12s %12s %12s %12s\n",
		"Patient ID", "Q Recep", "Recep", "Q Nurse", "Nurse", "Q Doctor", "Doctor")
	for _, r := range res.Patients.Records() {
		fmt.Fprintf(w, "%10d", r.ID)
		for _, st := range r.Stages {
			if st.Recorded {
				fmt.Fprintf(w, " %12.2f %12.2f", st.Wait, st.Service)
			} else {
				fmt.Fprintf(w, " %12s %12s", "-", "-")
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "=== Run Summary ===")
	fmt.Fprintf(w, "Arrivals             : %d\n", res.Summary.Arrivals)
	fmt.Fprintf(w, "Mean Q Time Recep    : %.2f\n", res.Summary.MeanQTimeRecep)
	fmt.Fprintf(w, "Mean Q Time Nurse    : %.2f\n", res.Summary.MeanQTimeNurse)
	fmt.Fprintf(w, "Mean Q Time Doctor   : %.2f\n", res.Summary.MeanQTimeDoctor)
	for _, name := range []string{"reception", "nurse", "doctor"} {
		fmt.Fprintf(w, "Utilisation %-9s: %.2f\n", name, res.Utilisation[name])
	}
	if res.Trace != nil {
		summary := trace.Summarize(res.Trace)
		fmt.Fprintln(w, "=== Resource Trace ===")
		for _, name := range summary.ResourceNames() {
			rs := summary.Resources[name]
			fmt.Fprintf(w, "%-10s grants=%d hand-offs=%d peak-in-use=%d peak-queue=%d mean-wait=%.2f max-wait=%.2f\n",
				name, rs.Grants, rs.HandOffs, rs.PeakInUse, rs.PeakQueueLen, rs.MeanWait, rs.MaxWait)
		}
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerParamFlags adds the clinic parameter flags to c.
// Defaults mirror sim.DefaultParams.
func registerParamFlags(c *cobra.Command) {
	d := sim.DefaultParams()
	c.Flags().StringVar(&configPath, "config", "", "YAML file with clinic parameters (flags override it)")
	c.Flags().Float64Var(&patientInter, "patient-inter", d.PatientInter, "Mean patient inter-arrival time")
	c.Flags().Float64Var(&meanReceptionTime, "mean-reception-time", d.MeanReceptionTime, "Mean time with the receptionist")
	c.Flags().Float64Var(&meanNurseConsultTime, "mean-nurse-time", d.MeanNurseConsultTime, "Mean nurse consultation time")
	c.Flags().Float64Var(&meanDoctorConsultTime, "mean-doctor-time", d.MeanDoctorConsultTime, "Mean doctor consultation time (used with --separate-doctor-stream)")
	c.Flags().IntVar(&numberOfReceptionists, "receptionists", d.NumberOfReceptionists, "Number of receptionists")
	c.Flags().IntVar(&numberOfNurses, "nurses", d.NumberOfNurses, "Number of nurses")
	c.Flags().IntVar(&numberOfDoctors, "doctors", d.NumberOfDoctors, "Number of doctors")
	c.Flags().Float64Var(&probSeeingDoctor, "prob-doctor", d.ProbSeeingDoctor, "Probability a patient sees a doctor after the nurse")
	c.Flags().Float64Var(&simDuration, "duration", d.SimDuration, "Simulation duration of each replication")
	c.Flags().IntVar(&numberOfRuns, "runs", d.NumberOfRuns, "Number of replications in a trial")
	c.Flags().Int64Var(&seed, "seed", d.Seed, "Base seed; replication r uses seed+r")
	c.Flags().BoolVar(&separateDoctorStream, "separate-doctor-stream", d.SeparateDoctorStream, "Sample doctor consultations from their own stream")

	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&resultsPath, "results-path", "", "Write the result table as CSV to this path")
}

// init sets up CLI flags and subcommands
func init() {
	registerParamFlags(runCmd)
	runCmd.Flags().IntVar(&replication, "replication", 0, "Replication index (selects the random streams)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Resource trace level (none, resources)")

	registerParamFlags(trialCmd)
	trialCmd.Flags().IntVar(&workers, "workers", 1, "Replications simulated concurrently")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trialCmd)
}
