// Package testutil provides shared test infrastructure for the clinic
// simulator: golden result files and float assertion helpers used across
// sim/ test packages.
package testutil

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenPath resolves name inside the repo root testdata/ directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
}

// LoadGolden reads a golden file. The second result is false when the file
// does not exist yet; any other read error fails the test.
func LoadGolden(t *testing.T, name string) ([]byte, bool) {
	t.Helper()

	data, err := os.ReadFile(GoldenPath(t, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", name, err)
	}
	return data, true
}

// WriteGolden replaces a golden file with data.
func WriteGolden(t *testing.T, name string, data []byte) {
	t.Helper()

	path := GoldenPath(t, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create testdata dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write golden file %s: %v", name, err)
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Two NaNs are equal.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == got || (math.IsNaN(want) && math.IsNaN(got)) {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if math.IsNaN(diff) || diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
