package sim

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// progressInterval bounds how often trial progress is logged.
const progressInterval = 2 * time.Second

// TrialRow is the summary of one replication.
type TrialRow struct {
	Run int
	RunSummary
	Utilisation map[string]float64
}

// TrialResultSet holds one row per replication in ascending run order.
type TrialResultSet struct {
	Rows []TrialRow
}

// Trial runs a batch of independent replications of the clinic model.
type Trial struct {
	Params Params
	// Workers is the number of replications simulated concurrently.
	// Values below 2 run replications one after another. Results do not
	// depend on it.
	Workers int
}

// NewTrial validates params up front so that a bad configuration fails
// before any replication runs.
func NewTrial(params Params) (*Trial, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Trial{Params: params, Workers: 1}, nil
}

// Run simulates replications 0..NumberOfRuns-1, each with a fresh Model.
// The first error (including ctx cancellation) aborts the trial and no
// partial results are returned.
func (t *Trial) Run(ctx context.Context) (*TrialResultSet, error) {
	if err := t.Params.Validate(); err != nil {
		return nil, err
	}
	total := t.Params.NumberOfRuns
	workers := min(max(t.Workers, 1), total)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logrus.Infof("Starting trial: %d replications, %d workers, duration=%v",
		total, workers, t.Params.SimDuration)
	start := time.Now()

	rows := make([]TrialRow, total)
	runs := make(chan int)
	progress := rate.NewLimiter(rate.Every(progressInterval), 1)
	var (
		wg       sync.WaitGroup
		done     atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for run := range runs {
				row, err := t.runReplication(run)
				if err != nil {
					fail(err)
					continue
				}
				rows[run] = row
				n := done.Add(1)
				if progress.Allow() || int(n) == total {
					logrus.Infof("trial progress: %d/%d replications", n, total)
				}
			}
		}()
	}

feed:
	for run := 0; run < total; run++ {
		select {
		case <-ctx.Done():
			break feed
		case runs <- run:
		}
	}
	close(runs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logrus.Infof("Trial complete: %d replications in %v", total, time.Since(start))
	return &TrialResultSet{Rows: rows}, nil
}

func (t *Trial) runReplication(run int) (TrialRow, error) {
	m, err := NewModel(t.Params, run)
	if err != nil {
		return TrialRow{}, err
	}
	res, err := m.Run()
	if err != nil {
		return TrialRow{}, err
	}
	return TrialRow{Run: run, RunSummary: res.Summary, Utilisation: res.Utilisation}, nil
}

// trialHeader is the per-replication CSV header.
var trialHeader = []string{
	"Run Number", "Arrivals", "Mean Q Time Recep", "Mean Q Time Nurse", "Mean Q Time Doctor",
}

// WriteCSV writes the trial table in ascending run order.
func (ts *TrialResultSet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trialHeader); err != nil {
		return fmt.Errorf("writing trial header: %w", err)
	}
	for _, r := range ts.Rows {
		row := []string{
			strconv.Itoa(r.Run),
			strconv.Itoa(r.Arrivals),
			formatFloat(r.MeanQTimeRecep),
			formatFloat(r.MeanQTimeNurse),
			formatFloat(r.MeanQTimeDoctor),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing run %d: %w", r.Run, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ColumnSummary describes one trial column across replications.
// NaN entries (e.g. no patient reached a doctor) are left out.
type ColumnSummary struct {
	N      int
	Mean   float64
	StdDev float64
	// CIHalfWidth is the half-width of the 95% Student-t confidence
	// interval of Mean; NaN when N < 2.
	CIHalfWidth float64
}

// TrialSummary aggregates the trial table column by column.
type TrialSummary struct {
	Arrivals        ColumnSummary
	MeanQTimeRecep  ColumnSummary
	MeanQTimeNurse  ColumnSummary
	MeanQTimeDoctor ColumnSummary
	Utilisation     map[string]ColumnSummary
}

// Summary computes the across-replication statistics of every column.
func (ts *TrialResultSet) Summary() TrialSummary {
	column := func(get func(TrialRow) float64) ColumnSummary {
		xs := make([]float64, 0, len(ts.Rows))
		for _, r := range ts.Rows {
			if v := get(r); !math.IsNaN(v) {
				xs = append(xs, v)
			}
		}
		return summarizeColumn(xs)
	}
	s := TrialSummary{
		Arrivals:        column(func(r TrialRow) float64 { return float64(r.Arrivals) }),
		MeanQTimeRecep:  column(func(r TrialRow) float64 { return r.MeanQTimeRecep }),
		MeanQTimeNurse:  column(func(r TrialRow) float64 { return r.MeanQTimeNurse }),
		MeanQTimeDoctor: column(func(r TrialRow) float64 { return r.MeanQTimeDoctor }),
		Utilisation:     make(map[string]ColumnSummary),
	}
	for _, name := range ts.resourceNames() {
		s.Utilisation[name] = column(func(r TrialRow) float64 {
			if u, ok := r.Utilisation[name]; ok {
				return u
			}
			return math.NaN()
		})
	}
	return s
}

func summarizeColumn(xs []float64) ColumnSummary {
	cs := ColumnSummary{N: len(xs), Mean: math.NaN(), StdDev: math.NaN(), CIHalfWidth: math.NaN()}
	if cs.N == 0 {
		return cs
	}
	cs.Mean = stat.Mean(xs, nil)
	if cs.N < 2 {
		return cs
	}
	cs.StdDev = stat.StdDev(xs, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(cs.N - 1)}
	cs.CIHalfWidth = t.Quantile(0.975) * cs.StdDev / math.Sqrt(float64(cs.N))
	return cs
}

func (ts *TrialResultSet) resourceNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range ts.Rows {
		for name := range r.Utilisation {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Print displays the trial table and its column means, rounded to 2 dp.
func (ts *TrialResultSet) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Trial Results ===")
	fmt.Fprintf(w, "%10s %8s %18s %18s %18s\n", trialHeader[0], trialHeader[1], trialHeader[2], trialHeader[3], trialHeader[4])
	for _, r := range ts.Rows {
		fmt.Fprintf(w, "%10d %8d %18.2f %18.2f %18.2f\n",
			r.Run, r.Arrivals, r.MeanQTimeRecep, r.MeanQTimeNurse, r.MeanQTimeDoctor)
	}

	s := ts.Summary()
	fmt.Fprintln(w, "=== Trial Summary (mean ± 95% CI) ===")
	printColumn(w, "Arrivals", s.Arrivals)
	printColumn(w, "Mean Q Time Recep", s.MeanQTimeRecep)
	printColumn(w, "Mean Q Time Nurse", s.MeanQTimeNurse)
	printColumn(w, "Mean Q Time Doctor", s.MeanQTimeDoctor)
	for _, name := range ts.resourceNames() {
		printColumn(w, "Utilisation "+name, s.Utilisation[name])
	}
}

func printColumn(w io.Writer, name string, cs ColumnSummary) {
	fmt.Fprintf(w, "%-24s: %.2f ± %.2f (sd %.2f, n=%d)\n", name, cs.Mean, cs.CIHalfWidth, cs.StdDev, cs.N)
}
