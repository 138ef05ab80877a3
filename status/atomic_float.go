package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 with atomic Load, Store, and Add, backed by the
// raw IEEE 754 bits in a uint64. The zero value holds 0.0 and is ready to use.
type AtomicFloat struct {
	bits atomic.Uint64
}

// Store atomically replaces the value
func (f *AtomicFloat) Store(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Load atomically reads the value
func (f *AtomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add atomically adds delta to the value and returns the result, retrying
// the compare-and-swap until no concurrent writer interferes
func (f *AtomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}
