package sim

import (
	"hash/fnv"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// === SimulationKey ===

// SimulationKey uniquely identifies the randomness of one replication.
// Two models with the same SimulationKey and identical Params
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey returns the key for replication run under a base seed.
func NewSimulationKey(seed int64, run int) SimulationKey {
	return SimulationKey(seed + int64(run))
}

// === Subsystem Constants ===

const (
	// SubsystemArrivals drives patient inter-arrival times.
	SubsystemArrivals = "arrivals"
	// SubsystemReception drives time spent with the receptionist.
	SubsystemReception = "reception"
	// SubsystemNurse drives nurse consultations (and doctor consultations
	// unless Params.SeparateDoctorStream is set).
	SubsystemNurse = "nurse"
	// SubsystemDoctor drives doctor consultations when Params.SeparateDoctorStream is set.
	SubsystemDoctor = "doctor"
	// SubsystemRouting draws the uniform deciding whether a patient sees a doctor.
	SubsystemRouting = "routing"
)

// === Stream ===

// Stream is one reproducible random number source.
type Stream struct {
	src *rand.PCG
	rng *rand.Rand
}

func newStream(seed1, seed2 uint64) *Stream {
	src := rand.NewPCG(seed1, seed2)
	return &Stream{src: src, rng: rand.New(src)}
}

// Uniform returns a float64 in [0, 1).
func (s *Stream) Uniform() float64 {
	return s.rng.Float64()
}

// Exponential draws once from an exponential distribution with the given mean.
func (s *Stream) Exponential(mean float64) (float64, error) {
	e, err := NewExponential(s, mean)
	if err != nil {
		return 0, err
	}
	return e.Sample(), nil
}

// Exponential samples durations with a fixed mean from one stream.
type Exponential struct {
	dist distuv.Exponential
}

// NewExponential binds an exponential distribution to stream.
// Returns *ConfigurationError when mean is not a finite positive number.
func NewExponential(stream *Stream, mean float64) (*Exponential, error) {
	if err := validateFinitePositive("mean", mean); err != nil {
		return nil, err
	}
	return &Exponential{
		dist: distuv.Exponential{Rate: 1 / mean, Src: stream.src},
	}, nil
}

// Sample returns a non-negative duration.
func (e *Exponential) Sample() float64 {
	return e.dist.Rand()
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated streams per subsystem.
//
// Derivation formula:
//   - h = fnv1a64(subsystemName)
//   - seed1 = splitmix64(key XOR h), seed2 = splitmix64(seed1)
//   - stream = PCG(seed1, seed2)
//
// Adjacent keys (consecutive replications) land on unrelated PCG states
// because both words pass through splitmix64.
//
// Thread-safety: NOT thread-safe. Each Model owns its own PartitionedRNG.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*Stream
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*Stream),
	}
}

// ForSubsystem returns the stream for the named subsystem.
// The same subsystem name always returns the same *Stream instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *Stream {
	if s, ok := p.subsystems[name]; ok {
		return s
	}
	seed1 := splitmix64(uint64(p.key) ^ fnv1a64(name))
	seed2 := splitmix64(seed1)
	s := newStream(seed1, seed2)
	p.subsystems[name] = s
	return s
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// splitmix64 is the finalizer of Vigna's SplitMix64 generator.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
