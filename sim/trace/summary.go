package trace

import "sort"

// ResourceSummary aggregates the grants of one resource.
type ResourceSummary struct {
	Grants       int
	Releases     int
	HandOffs     int
	PeakInUse    int
	PeakQueueLen int
	MeanWait     float64
	MaxWait      float64
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalGrants   int
	TotalReleases int
	Resources     map[string]*ResourceSummary // resource name → summary
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Resources: make(map[string]*ResourceSummary),
	}
	if st == nil {
		return summary
	}

	totalWait := make(map[string]float64)
	for _, g := range st.Grants {
		rs := summary.resource(g.Resource)
		rs.Grants++
		rs.PeakInUse = max(rs.PeakInUse, g.InUse)
		rs.PeakQueueLen = max(rs.PeakQueueLen, g.QueueLen)
		w := g.Wait()
		totalWait[g.Resource] += w
		rs.MaxWait = max(rs.MaxWait, w)
	}
	for _, r := range st.Releases {
		rs := summary.resource(r.Resource)
		rs.Releases++
		if r.HandedOff {
			rs.HandOffs++
		}
	}
	for name, rs := range summary.Resources {
		if rs.Grants > 0 {
			rs.MeanWait = totalWait[name] / float64(rs.Grants)
		}
	}

	summary.TotalGrants = len(st.Grants)
	summary.TotalReleases = len(st.Releases)

	return summary
}

// ResourceNames returns the summarized resource names in sorted order.
func (s *TraceSummary) ResourceNames() []string {
	names := make([]string, 0, len(s.Resources))
	for name := range s.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *TraceSummary) resource(name string) *ResourceSummary {
	rs, ok := s.Resources[name]
	if !ok {
		rs = &ResourceSummary{}
		s.Resources[name] = rs
	}
	return rs
}
