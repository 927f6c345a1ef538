// Package trace provides per-event trace recording for single-server runs.
// It has no dependencies on sim/ and stores plain data types.
package trace

// EventRecord captures the system state right after one event was handled.
type EventRecord struct {
	Seq              int     // 0-based position of the event within the run
	Type             string  // "arrival" or "departure"
	Clock            float64 // time the event fired
	QueueLength      int     // customers waiting after the event
	ServerBusy       bool    // server status after the event
	CustomersDelayed int64   // customers who have begun service so far
}

// ServiceRecord captures one customer beginning service.
type ServiceRecord struct {
	Customer    int64   // 1-based order in which customers began service
	Clock       float64 // time service began
	ArrivalTime float64 // time the customer arrived
	Delay       float64 // Clock - ArrivalTime; 0 for arrivals to an idle server
}
