// Package sim provides the discrete-event engine for a single-server FIFO
// queueing system (the textbook M/M/1 model).
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: event types, the event list and the timing scan
//   - simulator.go: simulation state, the arrival/departure handlers and the run loop
//   - metrics.go: time-weighted statistics and the final summary
//
// # Architecture
//
// A Simulator owns all run state (clock, server status, wait queue, event
// list, accumulators) and models exactly one run. Randomness enters only
// through a UniformSource, so a run is reproducible from a SimulationKey or
// from a RecordedSource of fixed draws.
//
// Sub-packages build on the kernel:
//   - sim/replication/: independent replications and confidence intervals
//   - sim/analytic/: closed-form M/M/1 reference values
//   - sim/trace/: per-event trace recording
//
// Parameter input and report rendering live in cmd/, never here.
package sim
