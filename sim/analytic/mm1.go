// Package analytic computes closed-form steady-state measures of the M/M/1
// queue, used as a reference for simulated estimates.
package analytic

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRates is returned for non-positive or non-finite means.
var ErrInvalidRates = errors.New("analytic: mean times must be positive and finite")

// MM1 holds the steady-state measures of an M/M/1 queue.
// When Stable is false the queue grows without bound; the waiting measures
// have no steady state and are left at 0.
type MM1 struct {
	ArrivalRate          float64 `json:"arrival_rate" yaml:"arrival_rate"` // lambda
	ServiceRate          float64 `json:"service_rate" yaml:"service_rate"` // mu
	Rho                  float64 `json:"rho" yaml:"rho"`                   // lambda / mu
	Stable               bool    `json:"stable" yaml:"stable"`
	AverageDelay         float64 `json:"average_delay" yaml:"average_delay"`                     // Wq
	AverageNumberInQueue float64 `json:"average_number_in_queue" yaml:"average_number_in_queue"` // Lq
	ServerUtilization    float64 `json:"server_utilization" yaml:"server_utilization"`
}

// SolveMM1 evaluates the M/M/1 formulas for the given mean interarrival and
// mean service times.
func SolveMM1(meanInterarrival, meanService float64) (*MM1, error) {
	if !valid(meanInterarrival) || !valid(meanService) {
		return nil, fmt.Errorf("%w: interarrival=%v, service=%v", ErrInvalidRates, meanInterarrival, meanService)
	}
	lambda := 1 / meanInterarrival
	mu := 1 / meanService
	rho := lambda / mu

	m := &MM1{
		ArrivalRate: lambda,
		ServiceRate: mu,
		Rho:         rho,
		Stable:      rho < 1,
	}
	if !m.Stable {
		m.ServerUtilization = 1
		return m, nil
	}
	m.AverageDelay = rho / (mu - lambda)
	m.AverageNumberInQueue = rho * rho / (1 - rho)
	m.ServerUtilization = rho
	return m, nil
}

func valid(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
