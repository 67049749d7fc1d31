// Package atomic_float provides lock-free float64 primitives, reinterpreting
// the bits through sync/atomic's uint64 CAS since the standard library has no
// atomic float type. Used by the server to track its active-connection count
// without a mutex.
package atomic_float

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// No unsafe pointer derived here should be retained past a few lines: the gc
// may relocate the referent between reads if nothing else still points to it.

// AtomicRead atomically reads a float64.
func AtomicRead(val *float64) (value float64) {
	return math.Float64frombits(atomic.LoadUint64((*uint64)(unsafe.Pointer(val))))
}

// AtomicAdd attempts a single compare-and-swap adding addend to *val,
// returning the value that would result and whether the swap succeeded.
// Callers loop until succeeded is true.
func AtomicAdd(val *float64, addend float64) (new_val float64, succeeded bool) {
	old := AtomicRead(val)
	new_val = old + addend
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(val)),
		math.Float64bits(old),
		math.Float64bits(new_val),
	)
	return
}

// AtomicSet atomically sets a float64.
func AtomicSet(val *float64, new_val float64) {
	for {
		old := AtomicRead(val)
		if atomic.CompareAndSwapUint64(
			(*uint64)(unsafe.Pointer(val)),
			math.Float64bits(old),
			math.Float64bits(new_val),
		) {
			break
		}
	}
}

// Gauge is a concurrency-safe float64 counter, used for server metrics that
// are read far more often than they're written (the active-connection count)
// where a mutex would be overkill.
type Gauge struct {
	val float64
}

// Add adjusts the gauge by delta and returns the new value.
func (g *Gauge) Add(delta float64) float64 {
	for {
		if v, ok := AtomicAdd(&g.val, delta); ok {
			return v
		}
	}
}

// Set overwrites the gauge's value.
func (g *Gauge) Set(v float64) {
	AtomicSet(&g.val, v)
}

// Value reads the gauge's current value.
func (g *Gauge) Value() float64 {
	return AtomicRead(&g.val)
}
