package sim

import (
	"fmt"
	"math"
)

// DefaultQueueLimit is the wait queue capacity used when none is configured.
const DefaultQueueLimit = 100

// Config groups the parameters of one simulation run.
type Config struct {
	MeanInterarrival float64 // mean time between arrivals (must be > 0)
	MeanService      float64 // mean service duration (must be > 0)
	NumCustomers     int64   // customers whose delay must be observed before stopping (must be > 0)
	QueueLimit       int     // max customers waiting, excluding the one in service (must be > 0)
}

// NewConfig returns a Config with the default queue limit.
func NewConfig(meanInterarrival, meanService float64, numCustomers int64) Config {
	return Config{
		MeanInterarrival: meanInterarrival,
		MeanService:      meanService,
		NumCustomers:     numCustomers,
		QueueLimit:       DefaultQueueLimit,
	}
}

// Validate reports the first parameter that cannot drive a run.
// The returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if !positiveFinite(c.MeanInterarrival) {
		return fmt.Errorf("%w: mean interarrival time must be positive and finite, got %v", ErrInvalidConfig, c.MeanInterarrival)
	}
	if !positiveFinite(c.MeanService) {
		return fmt.Errorf("%w: mean service time must be positive and finite, got %v", ErrInvalidConfig, c.MeanService)
	}
	if c.NumCustomers <= 0 {
		return fmt.Errorf("%w: number of customers must be positive, got %d", ErrInvalidConfig, c.NumCustomers)
	}
	if c.QueueLimit <= 0 {
		return fmt.Errorf("%w: queue limit must be positive, got %d", ErrInvalidConfig, c.QueueLimit)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
