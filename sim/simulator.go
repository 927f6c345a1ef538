// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evesim/evesim/sim/trace"
)

// ServerStatus represents whether the single server is serving a customer.
type ServerStatus string

const (
	ServerIdle ServerStatus = "idle"
	ServerBusy ServerStatus = "busy"
)

// RunState represents the lifecycle of a Simulator.
// initializing → running → completed, or running → aborted.
type RunState string

const (
	StateInitializing RunState = "initializing"
	StateRunning      RunState = "running"
	StateCompleted    RunState = "completed"
	StateAborted      RunState = "aborted"
)

// Simulator is the core object that holds simulation time, system state, and the event loop.
// One Simulator models exactly one run and is not safe for concurrent use.
type Simulator struct {
	Clock float64
	// Events has the next scheduled time of each event type
	Events *EventList
	Server ServerStatus
	// WaitQ holds arrival times of customers waiting while the server is busy
	WaitQ   *WaitQueue
	Metrics *Metrics
	State   RunState
	// Trace, when non-nil, receives a record per event and per service start.
	// Set it before calling Run.
	Trace *trace.SimulationTrace

	config  Config
	src     UniformSource
	eventNo int
}

// NewSimulator validates cfg and returns a Simulator in the initializing state.
// All interarrival and service variates are drawn from src.
func NewSimulator(cfg Config, src UniformSource) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: uniform source must not be nil", ErrInvalidConfig)
	}
	return &Simulator{
		Clock:   0,
		Events:  NewEventList(),
		Server:  ServerIdle,
		WaitQ:   NewWaitQueue(cfg.QueueLimit),
		Metrics: NewMetrics(),
		State:   StateInitializing,
		config:  cfg,
		src:     src,
	}, nil
}

// Config returns the parameters the Simulator was built with.
func (sim *Simulator) Config() Config {
	return sim.config
}

// Run drives the simulation until the required number of customers have
// begun service. On a fatal condition it returns an *AbortError and no
// summary.
func (sim *Simulator) Run() (Summary, error) {
	if sim.State != StateInitializing {
		return Summary{}, ErrAlreadyRun
	}
	sim.initialize()
	logrus.Infof("Starting simulation: mean interarrival=%v, mean service=%v, customers=%d, queue limit=%d",
		sim.config.MeanInterarrival, sim.config.MeanService, sim.config.NumCustomers, sim.config.QueueLimit)

	for sim.Metrics.CustomersDelayed < sim.config.NumCustomers {
		// get the next event and advance the clock
		ev, err := sim.timing()
		if err != nil {
			return sim.abort(err)
		}
		// attribute the elapsed interval to the state that held during it
		sim.Metrics.Update(sim.Clock, sim.WaitQ.Len(), sim.Server == ServerBusy)
		logrus.Debugf("[t=%.5f] Executing %s", sim.Clock, ev)
		if err := sim.execute(ev); err != nil {
			return sim.abort(err)
		}
		sim.recordEvent(ev)
	}

	sim.State = StateCompleted
	logrus.Infof("[t=%.5f] Simulation ended after %d events", sim.Clock, sim.eventNo)
	return sim.Metrics.Summarize(sim.Clock), nil
}

// initialize resets the clock and schedules the first arrival.
// Since no customer is present, departures are not scheduled.
func (sim *Simulator) initialize() {
	sim.Clock = 0
	sim.Server = ServerIdle
	sim.Metrics = NewMetrics()
	sim.Events = NewEventList()
	sim.Events.Schedule(EventArrival, sim.Clock+Exponential(sim.src, sim.config.MeanInterarrival))
	sim.Events.Cancel(EventDeparture)
	sim.State = StateRunning
}

// timing selects the earliest scheduled event and advances the clock to it.
func (sim *Simulator) timing() (EventType, error) {
	ev, at, ok := sim.Events.Next()
	if !ok {
		return ev, &AbortError{Reason: AbortEventListExhausted, Clock: sim.Clock}
	}
	sim.Clock = at
	return ev, nil
}

func (sim *Simulator) execute(ev EventType) error {
	switch ev {
	case EventArrival:
		return sim.arrive()
	case EventDeparture:
		sim.depart()
		return nil
	default:
		panic(fmt.Sprintf("execute: unknown event type %d", int(ev)))
	}
}

// arrive handles a customer arrival at sim.Clock.
func (sim *Simulator) arrive() error {
	sim.Events.Schedule(EventArrival, sim.Clock+Exponential(sim.src, sim.config.MeanInterarrival))

	if sim.Server == ServerBusy {
		if !sim.WaitQ.Enqueue(sim.Clock) {
			oldest, _ := sim.WaitQ.Peek()
			logrus.Warnf("[t=%.5f] Wait queue full: %d customers waiting, oldest arrived at %.5f",
				sim.Clock, sim.WaitQ.Cap(), oldest)
			return &AbortError{Reason: AbortQueueOverflow, Clock: sim.Clock}
		}
		return nil
	}

	// An arrival to an idle server begins service at once with zero delay,
	// and counts toward the stopping condition immediately.
	sim.beginService(sim.Clock)
	sim.Server = ServerBusy
	sim.Events.Schedule(EventDeparture, sim.Clock+Exponential(sim.src, sim.config.MeanService))
	return nil
}

// depart handles a service completion at sim.Clock.
func (sim *Simulator) depart() {
	arrival, ok := sim.WaitQ.Dequeue()
	if !ok {
		sim.Server = ServerIdle
		sim.Events.Cancel(EventDeparture)
		return
	}
	sim.beginService(arrival)
	sim.Events.Schedule(EventDeparture, sim.Clock+Exponential(sim.src, sim.config.MeanService))
}

// beginService counts the customer that arrived at arrival as entering service now.
func (sim *Simulator) beginService(arrival float64) {
	delay := sim.Clock - arrival
	sim.Metrics.RecordDelay(delay)
	if sim.Trace != nil {
		sim.Trace.RecordService(trace.ServiceRecord{
			Customer:    sim.Metrics.CustomersDelayed,
			Clock:       sim.Clock,
			ArrivalTime: arrival,
			Delay:       delay,
		})
	}
}

func (sim *Simulator) recordEvent(ev EventType) {
	if sim.Trace != nil {
		sim.Trace.RecordEvent(trace.EventRecord{
			Seq:              sim.eventNo,
			Type:             ev.String(),
			Clock:            sim.Clock,
			QueueLength:      sim.WaitQ.Len(),
			ServerBusy:       sim.Server == ServerBusy,
			CustomersDelayed: sim.Metrics.CustomersDelayed,
		})
	}
	sim.eventNo++
}

func (sim *Simulator) abort(err error) (Summary, error) {
	sim.State = StateAborted
	logrus.Warnf("[t=%.5f] %v", sim.Clock, err)
	return Summary{}, err
}
