// Package momentum tracks the kernel's process-scoped confidence scalar.
//
// Momentum starts at 1.0 and only ever decreases, floored at 0, until an
// explicit Reset. Decrements are applied with a compare-and-swap loop, so
// concurrent conflict resolutions never lose an update and never underflow.
package momentum

import (
	"math"
	"sync/atomic"
)

// Initial is the value a fresh or reset State holds.
const Initial = 1.0

// State is a concurrency-safe, monotonically non-increasing scalar in [0, 1].
// The zero value is not ready for use; call New.
type State struct {
	bits atomic.Uint64
}

// New returns a State initialised to Initial.
func New() *State {
	s := &State{}
	s.bits.Store(math.Float64bits(Initial))
	return s
}

// Load returns the current value. A value read here is never higher than
// any value previously returned by Decay or Load, short of a Reset.
func (s *State) Load() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Decay subtracts amount, flooring at 0, and returns the new value.
// Non-positive and NaN amounts are ignored so momentum cannot increase here.
func (s *State) Decay(amount float64) float64 {
	if !(amount > 0) {
		return s.Load()
	}
	for {
		old := s.bits.Load()
		next := math.Max(0, math.Float64frombits(old)-amount)
		if s.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// Reset restores Initial. It is the only operation that raises momentum and
// is reserved for external containment or governance logic.
func (s *State) Reset() {
	s.bits.Store(math.Float64bits(Initial))
}
