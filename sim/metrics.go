// Tracks the statistical counters of a run: customers delayed, total delay,
// and the areas under the number-in-queue and server-busy step functions.

package sim

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	CustomersDelayed int64   // customers who have begun service
	TotalDelay       float64 // sum of the queueing delays of those customers
	AreaNumInQueue   float64 // integral of queue length over time
	AreaServerBusy   float64 // integral of the 0/1 server-busy indicator over time
	TimeLastEvent    float64 // clock value at the previous Update
}

// NewMetrics returns zeroed counters anchored at time 0.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Update integrates the state that held since the previous event.
// It must run before the event at now is handled, with queueLen and busy as
// they were during the elapsed interval.
func (m *Metrics) Update(now float64, queueLen int, busy bool) {
	elapsed := now - m.TimeLastEvent
	m.TimeLastEvent = now

	m.AreaNumInQueue += float64(queueLen) * elapsed
	if busy {
		m.AreaServerBusy += elapsed
	}
}

// RecordDelay counts one customer beginning service after waiting delay.
func (m *Metrics) RecordDelay(delay float64) {
	m.TotalDelay += delay
	m.CustomersDelayed++
}

// Summary holds the results of a completed run.
type Summary struct {
	AverageDelay         float64 `json:"average_delay" yaml:"average_delay"`                     // mean queueing delay per customer
	AverageNumberInQueue float64 `json:"average_number_in_queue" yaml:"average_number_in_queue"` // time-average queue length
	ServerUtilization    float64 `json:"server_utilization" yaml:"server_utilization"`           // fraction of time the server was busy
	EndTime              float64 `json:"end_time" yaml:"end_time"`                               // clock when the run completed
	CustomersDelayed     int64   `json:"customers_delayed" yaml:"customers_delayed"`
}

// Summarize derives the final averages at clock.
// Time averages are reported as 0 when clock is 0, since no time has elapsed.
func (m *Metrics) Summarize(clock float64) Summary {
	s := Summary{
		EndTime:          clock,
		CustomersDelayed: m.CustomersDelayed,
	}
	if m.CustomersDelayed > 0 {
		s.AverageDelay = m.TotalDelay / float64(m.CustomersDelayed)
	}
	if clock > 0 {
		s.AverageNumberInQueue = m.AreaNumInQueue / clock
		s.ServerUtilization = m.AreaServerBusy / clock
	}
	return s
}
