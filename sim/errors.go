package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every Config validation failure.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrAborted is wrapped by every AbortError.
	ErrAborted = errors.New("simulation aborted")

	// ErrAlreadyRun is returned when Run is called on a Simulator that has
	// already completed or aborted. A fresh Simulator models a fresh run.
	ErrAlreadyRun = errors.New("simulator has already run")
)

// AbortReason names the fatal condition that stopped a run.
type AbortReason string

const (
	// AbortEventListExhausted means no event type had a scheduled time.
	AbortEventListExhausted AbortReason = "EventListExhausted"
	// AbortQueueOverflow means an arrival found the wait queue at capacity.
	AbortQueueOverflow AbortReason = "QueueOverflow"
)

// AbortError reports a run that stopped before reaching the required number
// of customers. Statistics gathered up to that point are not a valid summary.
type AbortError struct {
	Reason AbortReason `json:"reason" yaml:"reason"`
	Clock  float64     `json:"clock" yaml:"clock"` // simulation time at which the condition was detected
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("simulation aborted: %s at time %f", e.Reason, e.Clock)
}

// Unwrap lets callers match any abort with errors.Is(err, ErrAborted).
func (e *AbortError) Unwrap() error {
	return ErrAborted
}
