package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evesim/evesim/sim/internal/testutil"
	"github.com/evesim/evesim/sim/trace"
)

// zeroSource is a degenerate stream whose draws make every variate +Inf.
type zeroSource struct{}

func (zeroSource) Uniform() float64 { return 0 }

func mustSimulator(t *testing.T, cfg Config, src UniformSource) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, src)
	require.NoError(t, err)
	return s
}

func TestNewSimulator_InitialState(t *testing.T) {
	s := mustSimulator(t, NewConfig(1.0, 0.5, 10), NewKeyedSource(NewSimulationKey(1)))

	assert.Equal(t, StateInitializing, s.State)
	assert.Equal(t, ServerIdle, s.Server)
	assert.Equal(t, 0.0, s.Clock)
	assert.Equal(t, 0, s.WaitQ.Len())
	assert.Equal(t, DefaultQueueLimit, s.WaitQ.Cap())
	assert.Equal(t, NewConfig(1.0, 0.5, 10), s.Config())
}

func TestNewSimulator_InvalidConfig_Rejected(t *testing.T) {
	_, err := NewSimulator(NewConfig(0, 0.5, 10), NewKeyedSource(NewSimulationKey(1)))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = NewSimulator(NewConfig(1, 0.5, 10), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestSimulator_Initialize_SchedulesFirstArrivalOnly(t *testing.T) {
	// GIVEN a recorded first interarrival of 0.7
	src := NewRecordedSource(testutil.UniformFor(0.7, 1.0))
	s := mustSimulator(t, NewConfig(1.0, 0.5, 1), src)

	// WHEN initialized
	s.initialize()

	// THEN only the arrival is scheduled and exactly one draw was consumed
	assert.Equal(t, StateRunning, s.State)
	assert.InDelta(t, 0.7, s.Events.At(EventArrival), 1e-12)
	assert.True(t, math.IsInf(s.Events.At(EventDeparture), 1))
	assert.Equal(t, 1, src.Consumed())
}

// TestSimulator_Run_ZeroWaitImmediateCompletion covers a single arrival to an
// idle server completing the run before any departure executes.
func TestSimulator_Run_ZeroWaitImmediateCompletion(t *testing.T) {
	// GIVEN mean interarrival 1.0, mean service 0.5, one customer, and draws
	// yielding: first arrival 0.3, next interarrival 0.7, service 0.2
	src := NewRecordedSource(
		testutil.UniformFor(0.3, 1.0),
		testutil.UniformFor(0.7, 1.0),
		testutil.UniformFor(0.2, 0.5),
	)
	s := mustSimulator(t, NewConfig(1.0, 0.5, 1), src)

	// WHEN run
	summary, err := s.Run()

	// THEN the run completes at the arrival with zero delay and no busy time
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, s.State)
	assert.Equal(t, int64(1), summary.CustomersDelayed)
	assert.Equal(t, 0.0, summary.AverageDelay)
	assert.Equal(t, 0.0, summary.ServerUtilization)
	assert.Equal(t, 0.0, summary.AverageNumberInQueue)
	assert.InDelta(t, 0.3, summary.EndTime, 1e-12)
	assert.Equal(t, 3, src.Consumed())

	// AND the server is left busy with a departure pending
	assert.Equal(t, ServerBusy, s.Server)
	assert.InDelta(t, 0.5, s.Events.At(EventDeparture), 1e-12)
}

// TestSimulator_Run_QueuedCustomers_HandComputed walks a short run whose
// statistics can be computed by hand:
//
//	t=1.0 arrival (idle, delay 0)       next arrival 1.5, departure 3.0
//	t=1.5 arrival (queued)              next arrival 2.0
//	t=2.0 arrival (queued)              next arrival 4.0
//	t=3.0 departure, 1.5 begins, delay 1.5, departure 3.5
//	t=3.5 departure, 2.0 begins, delay 1.5 -> third customer, stop
func TestSimulator_Run_QueuedCustomers_HandComputed(t *testing.T) {
	src := NewRecordedSource(testutil.Uniforms(1.0, 1.0, 0.5, 2.0, 0.5, 2.0, 0.5, 1.0)...)
	s := mustSimulator(t, NewConfig(1.0, 1.0, 3), src)
	s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})

	summary, err := s.Run()

	require.NoError(t, err)
	assert.InDelta(t, 3.5, summary.EndTime, 1e-9)
	assert.InDelta(t, 1.0, summary.AverageDelay, 1e-9)
	assert.InDelta(t, 3.0/3.5, summary.AverageNumberInQueue, 1e-9)
	assert.InDelta(t, 2.5/3.5, summary.ServerUtilization, 1e-9)
	assert.Equal(t, 7, src.Consumed())

	// AND the trace shows the event sequence and service order
	var types []string
	for _, e := range s.Trace.Events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{"arrival", "arrival", "arrival", "departure", "departure"}, types)
	require.Len(t, s.Trace.Services, 3)
	assert.InDelta(t, 1.5, s.Trace.Services[1].ArrivalTime, 1e-9)
	assert.InDelta(t, 2.0, s.Trace.Services[2].ArrivalTime, 1e-9)
	assert.Equal(t, 0, s.WaitQ.Len(), "both queued customers began service")
}

func TestSimulator_Run_DepartureEmptiesQueue_ServerIdles(t *testing.T) {
	// GIVEN an arrival at 1.0 served in 0.5, next arrival at 3.0
	//	t=1.0 arrival (idle)  next arrival 3.0, departure 1.5
	//	t=1.5 departure, queue empty -> idle
	//	t=3.0 arrival (idle) -> second customer, stop
	src := NewRecordedSource(testutil.Uniforms(1.0, 1.0, 2.0, 0.5, 1.0, 0.5)...)
	s := mustSimulator(t, NewConfig(1.0, 1.0, 2), src)

	summary, err := s.Run()

	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.AverageDelay)
	assert.InDelta(t, 3.0, summary.EndTime, 1e-9)
	assert.InDelta(t, 0.5/3.0, summary.ServerUtilization, 1e-9)
	assert.Equal(t, 0.0, summary.AverageNumberInQueue)
}

func TestSimulator_Run_QueueOverflow_AbortsAtOffendingArrival(t *testing.T) {
	// GIVEN capacity 2 and a long first service with arrivals every 0.1:
	//	t=1.0 arrival (idle), departure at 101
	//	t=1.1, 1.2 arrivals fill the queue
	//	t=1.3 arrival overflows
	cfg := NewConfig(1.0, 1.0, 10)
	cfg.QueueLimit = 2
	src := NewRecordedSource(testutil.Uniforms(1.0, 1.0, 0.1, 100, 0.1, 0.1, 0.1)...)
	s := mustSimulator(t, cfg, src)

	summary, err := s.Run()

	// THEN the run aborts with QueueOverflow at the offending arrival time
	var abort *AbortError
	require.True(t, errors.As(err, &abort), "want *AbortError, got %v", err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Equal(t, AbortQueueOverflow, abort.Reason)
	assert.InDelta(t, 1.3, abort.Clock, 1e-9)
	assert.Equal(t, s.Clock, abort.Clock)
	assert.Equal(t, StateAborted, s.State)
	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, 2, s.WaitQ.Len())
}

func TestSimulator_Run_QueueOverflow_RandomStream(t *testing.T) {
	// GIVEN arrivals 1000x faster than service and a small queue
	cfg := NewConfig(0.01, 10, 1000)
	cfg.QueueLimit = 5
	s := mustSimulator(t, cfg, NewKeyedSource(NewSimulationKey(1)))

	_, err := s.Run()

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, AbortQueueOverflow, abort.Reason)
	assert.Greater(t, abort.Clock, 0.0)
}

func TestSimulator_Timing_AllUnscheduled_Exhausted(t *testing.T) {
	// GIVEN a running simulator whose arrival has been cancelled
	s := mustSimulator(t, NewConfig(1.0, 0.5, 5), NewKeyedSource(NewSimulationKey(1)))
	s.initialize()
	s.Events.Cancel(EventArrival)

	// WHEN timing runs
	_, err := s.timing()

	// THEN the event list is reported exhausted at the current clock
	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, AbortEventListExhausted, abort.Reason)
	assert.Equal(t, 0.0, abort.Clock)
}

func TestSimulator_Run_InfiniteVariates_EventListExhausted(t *testing.T) {
	// GIVEN a stream whose first interarrival is +Inf, leaving nothing scheduled
	s := mustSimulator(t, NewConfig(1.0, 0.5, 5), zeroSource{})

	_, err := s.Run()

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, AbortEventListExhausted, abort.Reason)
	assert.Equal(t, 0.0, abort.Clock)
	assert.Equal(t, StateAborted, s.State)
}

func TestSimulator_Run_Twice_ErrAlreadyRun(t *testing.T) {
	s := mustSimulator(t, NewConfig(1.0, 0.5, 10), NewKeyedSource(NewSimulationKey(3)))
	_, err := s.Run()
	require.NoError(t, err)

	_, err = s.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestSimulator_Run_SameKey_BitIdentical(t *testing.T) {
	cfg := NewConfig(1.0, 0.8, 2000)
	cfg.QueueLimit = 10000

	s1 := mustSimulator(t, cfg, NewKeyedSource(NewSimulationKey(42)))
	s2 := mustSimulator(t, cfg, NewKeyedSource(NewSimulationKey(42)))
	r1, err1 := s1.Run()
	r2, err2 := s2.Run()

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)

	s3 := mustSimulator(t, cfg, NewKeyedSource(NewSimulationKey(43)))
	r3, err3 := s3.Run()
	require.NoError(t, err3)
	assert.NotEqual(t, r1, r3, "different keys should give different runs")
}

func TestSimulator_Run_SameRecordedStream_BitIdentical(t *testing.T) {
	draws := make([]float64, 0, 5000)
	rec := NewKeyedSource(NewSimulationKey(5))
	for i := 0; i < cap(draws); i++ {
		draws = append(draws, rec.Uniform())
	}
	cfg := NewConfig(1.0, 0.5, 500)

	r1, err1 := mustSimulator(t, cfg, NewRecordedSource(draws...)).Run()
	r2, err2 := mustSimulator(t, cfg, NewRecordedSource(draws...)).Run()

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
}

// TestSimulator_Run_Invariants checks every traced event of a long run.
func TestSimulator_Run_Invariants(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		cfg := NewConfig(1.0, 0.9, 3000)
		cfg.QueueLimit = 100000
		s := mustSimulator(t, cfg, NewKeyedSource(NewSimulationKey(seed)))
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})

		summary, err := s.Run()
		require.NoError(t, err, "seed %d", seed)

		prevClock := 0.0
		for _, e := range s.Trace.Events {
			// clock never decreases
			if e.Clock < prevClock {
				t.Fatalf("seed %d: clock went back from %v to %v at event %d", seed, prevClock, e.Clock, e.Seq)
			}
			prevClock = e.Clock
			// nobody waits while the server is idle
			if !e.ServerBusy && e.QueueLength != 0 {
				t.Fatalf("seed %d: idle server with %d waiting at event %d", seed, e.QueueLength, e.Seq)
			}
		}

		totalDelay := 0.0
		prevArrival := math.Inf(-1)
		for i, svc := range s.Trace.Services {
			assert.Equal(t, int64(i+1), svc.Customer)
			// FIFO: customers begin service in arrival order
			if svc.ArrivalTime < prevArrival {
				t.Fatalf("seed %d: customer %d arrived at %v before %v but was served later", seed, svc.Customer, svc.ArrivalTime, prevArrival)
			}
			prevArrival = svc.ArrivalTime
			// zero-wait customers contribute exactly 0
			if svc.ArrivalTime == svc.Clock && svc.Delay != 0 {
				t.Fatalf("seed %d: zero-wait customer %d has delay %v", seed, svc.Customer, svc.Delay)
			}
			if svc.Delay < 0 {
				t.Fatalf("seed %d: negative delay %v", seed, svc.Delay)
			}
			totalDelay += svc.Delay
		}

		assert.Len(t, s.Trace.Services, 3000)
		assert.InDelta(t, s.Metrics.TotalDelay, totalDelay, 1e-6)
		assert.GreaterOrEqual(t, summary.ServerUtilization, 0.0)
		assert.LessOrEqual(t, summary.ServerUtilization, 1.0)
		assert.LessOrEqual(t, s.Metrics.AreaServerBusy, summary.EndTime)
		assert.Equal(t, s.Trace.Events[len(s.Trace.Events)-1].Clock, summary.EndTime)
	}
}

func TestSimulator_Run_LongRun_NearTheory(t *testing.T) {
	// GIVEN rho = 0.5, where M/M/1 gives Wq = 0.5, Lq = 0.5, utilization 0.5
	s := mustSimulator(t, NewConfig(1.0, 0.5, 200000), NewKeyedSource(NewSimulationKey(11)))

	summary, err := s.Run()

	require.NoError(t, err)
	assert.InDelta(t, 0.5, summary.ServerUtilization, 0.02)
	assert.InDelta(t, 0.5, summary.AverageDelay, 0.05)
	assert.InDelta(t, 0.5, summary.AverageNumberInQueue, 0.05)
}
