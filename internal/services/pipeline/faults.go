package pipeline

import (
	"math/rand"
	"sync"
	"time"
)

// FaultPolicy decides, once per run, whether a run will fail mid-flight.
// The draw happens when the run starts so the whole ladder of one run
// follows a single outcome.
type FaultPolicy interface {
	Draw() bool
}

// RandomFaults fails runs with a fixed probability
type RandomFaults struct {
	rate float64
	rng  *rand.Rand
	mu   sync.Mutex
}

// NewRandomFaults creates a fault policy with the given failure rate
func NewRandomFaults(rate float64) *RandomFaults {
	return &RandomFaults{
		rate: rate,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Draw returns true when the run should fail
func (f *RandomFaults) Draw() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.rate
}

// FixedFaults always returns the configured outcome. Tests use it to
// force the success or failure path.
type FixedFaults bool

// Draw returns the fixed outcome
func (f FixedFaults) Draw() bool {
	return bool(f)
}
