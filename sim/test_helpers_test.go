package sim

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/clinic-sim/sim/trace"
)

// testParams returns the reference configuration with a shorter horizon
// and fewer runs so tests stay fast.
func testParams() Params {
	p := DefaultParams()
	p.SimDuration = 240
	p.NumberOfRuns = 10
	return p
}

// runModel builds and runs one traced replication.
func runModel(t *testing.T, params Params, replication int) (*Model, *RunResult) {
	t.Helper()
	m, err := NewModel(params, replication)
	require.NoError(t, err)
	m.SetTraceLevel(trace.TraceLevelResources)
	res, err := m.Run()
	require.NoError(t, err)
	return m, res
}

// csvBytes renders a table through its WriteCSV method.
func csvBytes(t *testing.T, write func(io.Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, write(&buf))
	return buf.Bytes()
}

// recorder is a Process that logs the clock each time it is resumed.
type recorder struct {
	name string
	log  *[]string
	at   *[]float64
}

func (r *recorder) Resume(sim *Simulator) {
	*r.log = append(*r.log, r.name)
	if r.at != nil {
		*r.at = append(*r.at, sim.Now())
	}
}
