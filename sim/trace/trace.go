package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelServices captures only service starts.
	TraceLevelServices TraceLevel = "services"
	// TraceLevelEvents captures every event and every service start.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelServices: true,
	TraceLevelEvents:   true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during one simulation run.
type SimulationTrace struct {
	Config   TraceConfig
	Events   []EventRecord
	Services []ServiceRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:   config,
		Events:   make([]EventRecord, 0),
		Services: make([]ServiceRecord, 0),
	}
}

// RecordEvent appends an event record. Dropped unless the level is TraceLevelEvents.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	if st.Config.Level != TraceLevelEvents {
		return
	}
	st.Events = append(st.Events, record)
}

// RecordService appends a service-start record. Dropped at TraceLevelNone.
func (st *SimulationTrace) RecordService(record ServiceRecord) {
	if st.Config.Level != TraceLevelEvents && st.Config.Level != TraceLevelServices {
		return
	}
	st.Services = append(st.Services, record)
}
