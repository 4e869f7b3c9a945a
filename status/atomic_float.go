package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 gauge stored as bits; the zero value reads 0.0
type AtomicFloat struct {
	bits atomic.Uint64
}

// Set stores val
func (f *AtomicFloat) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Get loads the current value
func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add adds delta and returns the new value
func (f *AtomicFloat) Add(delta float64) float64 {
	return f.update(func(old float64) (float64, bool) { return old + delta, true })
}

// SetMax raises the gauge to val if val is larger, keeping a high-water mark.
// It returns the value held afterwards.
func (f *AtomicFloat) SetMax(val float64) float64 {
	return f.update(func(old float64) (float64, bool) { return val, val > old })
}

// update applies fn with CAS until it wins or fn declines the change
func (f *AtomicFloat) update(fn func(old float64) (float64, bool)) float64 {
	for {
		bits := f.bits.Load()
		old := math.Float64frombits(bits)
		next, ok := fn(old)
		if !ok {
			return old
		}
		if f.bits.CompareAndSwap(bits, math.Float64bits(next)) {
			return next
		}
	}
}
