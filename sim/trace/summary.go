package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Level          TraceLevel     `json:"level" yaml:"level"` // event fields are zero below TraceLevelEvents
	TotalEvents    int            `json:"total_events" yaml:"total_events"`
	EventCounts    map[string]int `json:"event_counts" yaml:"event_counts"` // event type → count
	MaxQueueLength int            `json:"max_queue_length" yaml:"max_queue_length"`
	ServiceStarts  int            `json:"service_starts" yaml:"service_starts"`
	ZeroWaitStarts int            `json:"zero_wait_starts" yaml:"zero_wait_starts"` // customers who found the server idle
	MeanDelay      float64        `json:"mean_delay" yaml:"mean_delay"`
	MaxDelay       float64        `json:"max_delay" yaml:"max_delay"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		EventCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}
	summary.Level = st.Config.Level

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.EventCounts[e.Type]++
		if e.QueueLength > summary.MaxQueueLength {
			summary.MaxQueueLength = e.QueueLength
		}
	}

	if len(st.Services) > 0 {
		totalDelay := 0.0
		for _, s := range st.Services {
			totalDelay += s.Delay
			if s.Delay == 0 {
				summary.ZeroWaitStarts++
			}
			if s.Delay > summary.MaxDelay {
				summary.MaxDelay = s.Delay
			}
		}
		summary.ServiceStarts = len(st.Services)
		summary.MeanDelay = totalDelay / float64(len(st.Services))
	}

	return summary
}
