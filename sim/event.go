package sim

import (
	"fmt"
	"math"
)

// NotScheduled is the event time of a slot with no pending occurrence.
// A slot holding it can never be selected by Next.
var NotScheduled = math.Inf(1)

// EventType identifies one kind of simulation event.
// Timing scans event types in declaration order, so on equal times the
// lower EventType fires first.
type EventType int

const (
	EventArrival   EventType = iota // a customer enters the system
	EventDeparture                  // the customer in service leaves
	numEventTypes
)

// EventTypes returns every event type in scan order.
func EventTypes() []EventType {
	types := make([]EventType, 0, numEventTypes)
	for t := EventType(0); t < numEventTypes; t++ {
		types = append(types, t)
	}
	return types
}

func (t EventType) String() string {
	switch t {
	case EventArrival:
		return "arrival"
	case EventDeparture:
		return "departure"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

func (t EventType) valid() bool {
	return t >= 0 && t < numEventTypes
}

// EventList holds the next occurrence time of every event type.
// Each event type has exactly one slot; scheduling overwrites it.
type EventList struct {
	times [numEventTypes]float64
}

// NewEventList returns an event list with every slot at NotScheduled.
func NewEventList() *EventList {
	el := &EventList{}
	for _, t := range EventTypes() {
		el.times[t] = NotScheduled
	}
	return el
}

// Schedule sets the next occurrence of t to at.
func (el *EventList) Schedule(t EventType, at float64) {
	if !t.valid() {
		panic(fmt.Sprintf("Schedule: unknown event type %d", int(t)))
	}
	el.times[t] = at
}

// Cancel removes any pending occurrence of t.
func (el *EventList) Cancel(t EventType) {
	el.Schedule(t, NotScheduled)
}

// At returns the scheduled time of t, or NotScheduled.
func (el *EventList) At(t EventType) float64 {
	if !t.valid() {
		panic(fmt.Sprintf("At: unknown event type %d", int(t)))
	}
	return el.times[t]
}

// Next returns the event type with the earliest scheduled time.
// The scan is linear and keeps the first minimum it sees, so ties resolve in
// EventType order. ok is false when every slot is NotScheduled.
func (el *EventList) Next() (next EventType, at float64, ok bool) {
	at = NotScheduled
	for _, t := range EventTypes() {
		if el.times[t] < at {
			at = el.times[t]
			next = t
			ok = true
		}
	}
	return next, at, ok
}
