package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Update_IntegratesPriorState(t *testing.T) {
	// GIVEN a step function: idle & empty on [0,1), busy with 2 waiting on [1,3), busy & empty on [3,4)
	m := NewMetrics()

	// WHEN updated at each event with the state that held since the previous one
	m.Update(1, 0, false)
	m.Update(3, 2, true)
	m.Update(4, 0, true)

	// THEN the areas match the step function
	assert.InDelta(t, 4.0, m.AreaNumInQueue, 1e-12)
	assert.InDelta(t, 3.0, m.AreaServerBusy, 1e-12)
	assert.Equal(t, 4.0, m.TimeLastEvent)
}

func TestMetrics_Update_SameInstant_AddsNothing(t *testing.T) {
	m := NewMetrics()
	m.Update(2, 1, true)
	m.Update(2, 5, true)

	assert.InDelta(t, 2.0, m.AreaNumInQueue, 1e-12)
	assert.InDelta(t, 2.0, m.AreaServerBusy, 1e-12)
}

func TestMetrics_RecordDelay_CountsCustomers(t *testing.T) {
	m := NewMetrics()
	m.RecordDelay(0)
	m.RecordDelay(1.5)
	m.RecordDelay(0.5)

	assert.Equal(t, int64(3), m.CustomersDelayed)
	assert.InDelta(t, 2.0, m.TotalDelay, 1e-12)
}

func TestMetrics_Summarize_DerivesAverages(t *testing.T) {
	m := &Metrics{
		CustomersDelayed: 4,
		TotalDelay:       2.0,
		AreaNumInQueue:   3.0,
		AreaServerBusy:   6.0,
	}

	s := m.Summarize(10)

	assert.Equal(t, Summary{
		AverageDelay:         0.5,
		AverageNumberInQueue: 0.3,
		ServerUtilization:    0.6,
		EndTime:              10,
		CustomersDelayed:     4,
	}, s)
}

func TestMetrics_Summarize_ZeroClock_NoDivision(t *testing.T) {
	m := NewMetrics()
	m.RecordDelay(0)

	s := m.Summarize(0)

	assert.Zero(t, s.AverageNumberInQueue)
	assert.Zero(t, s.ServerUtilization)
	assert.Zero(t, s.AverageDelay)
}
