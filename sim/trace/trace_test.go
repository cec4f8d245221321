package trace

import (
	"testing"
)

func TestSimulationTrace_RecordGrant_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for resources
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelResources})

	// WHEN a grant record is recorded
	st.RecordGrant(GrantRecord{
		Resource: "nurse",
		Clock:    12.5,
		Holder:   3,
		QueuedAt: 10,
		InUse:    1,
		Capacity: 1,
	})

	// THEN the trace contains one grant record with correct data
	if len(st.Grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(st.Grants))
	}
	if st.Grants[0].Holder != 3 {
		t.Errorf("expected holder 3, got %d", st.Grants[0].Holder)
	}
	if st.Grants[0].Wait() != 2.5 {
		t.Errorf("expected wait 2.5, got %v", st.Grants[0].Wait())
	}
}

func TestSimulationTrace_RecordRelease_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for resources
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelResources})

	// WHEN a release record is recorded
	st.RecordRelease(ReleaseRecord{Resource: "doctor", Clock: 40, Holder: 7, HandedOff: true})

	// THEN the trace contains one release record with correct data
	if len(st.Releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(st.Releases))
	}
	if !st.Releases[0].HandedOff {
		t.Error("expected handed off release")
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelResources})

	// WHEN multiple records are added
	st.RecordGrant(GrantRecord{Resource: "reception", Clock: 1, Holder: 1})
	st.RecordGrant(GrantRecord{Resource: "reception", Clock: 3, Holder: 2})
	st.RecordRelease(ReleaseRecord{Resource: "reception", Clock: 2, Holder: 1})

	// THEN order is preserved within each slice
	if len(st.Grants) != 2 || len(st.Releases) != 1 {
		t.Fatalf("expected 2 grants and 1 release, got %d and %d", len(st.Grants), len(st.Releases))
	}
	if st.Grants[0].Holder != 1 || st.Grants[1].Holder != 2 {
		t.Error("grant order not preserved")
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"resources", true},
		{"", true},
		{"decisions", false},
		{"all", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.want {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}
