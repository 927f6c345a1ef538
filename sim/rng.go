package sim

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemCustomers is the stream shared by interarrival and service
	// draws of a single run. Uses the master seed directly.
	SubsystemCustomers = "customers"
)

// SubsystemReplication returns the subsystem name for replication N.
func SubsystemReplication(id int) string {
	return fmt.Sprintf("replication_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemCustomers: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemCustomers {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === Uniform sources ===

// UniformSource supplies uniform draws in (0,1]. Draws must never be 0, so
// that ln(u) stays finite. A draw of exactly 1 yields a zero-length variate;
// RandSource never produces it, but a RecordedSource may replay it.
// Each call consumes one draw; the order of draws is part of a run's
// observable behavior.
type UniformSource interface {
	Uniform() float64
}

// RandSource adapts a *rand.Rand to UniformSource.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource wraps rng. rng must not be shared with another Simulator.
func NewRandSource(rng *rand.Rand) *RandSource {
	if rng == nil {
		panic("NewRandSource: rng must not be nil")
	}
	return &RandSource{rng: rng}
}

// NewKeyedSource returns the customer stream for key.
func NewKeyedSource(key SimulationKey) *RandSource {
	return NewRandSource(NewPartitionedRNG(key).ForSubsystem(SubsystemCustomers))
}

// EntropySeed returns a seed taken from the wall clock. Runs keyed by it are
// reproducible only if the seed is recorded.
func EntropySeed() int64 {
	return time.Now().UnixNano()
}

// Uniform returns a draw in (0,1). rand.Float64 may return 0; such draws are
// discarded so that ln(u) stays finite.
func (s *RandSource) Uniform() float64 {
	for {
		if u := s.rng.Float64(); u > 0 {
			return u
		}
	}
}

// RecordedSource replays a fixed sequence of uniform draws.
// It panics when asked for more draws than were recorded.
type RecordedSource struct {
	draws []float64
	next  int
}

// NewRecordedSource records draws. Every draw must lie in (0,1].
func NewRecordedSource(draws ...float64) *RecordedSource {
	for i, u := range draws {
		if !(u > 0 && u <= 1) {
			panic(fmt.Sprintf("NewRecordedSource: draw %d is %v, want (0,1]", i, u))
		}
	}
	return &RecordedSource{draws: append([]float64(nil), draws...)}
}

func (s *RecordedSource) Uniform() float64 {
	if s.next >= len(s.draws) {
		panic(fmt.Sprintf("RecordedSource: exhausted after %d draws", len(s.draws)))
	}
	u := s.draws[s.next]
	s.next++
	return u
}

// Consumed returns how many draws have been handed out.
func (s *RecordedSource) Consumed() int {
	return s.next
}

// === Variates ===

// Exponential returns an exponential variate with the given mean by inversion:
// -mean * ln(u). mean is validated by Config, not here.
func Exponential(src UniformSource, mean float64) float64 {
	return -mean * math.Log(src.Uniform())
}
