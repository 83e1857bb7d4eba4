package source

import (
	"math"
	"sync/atomic"
)

// Progress is a completion fraction in [0,1] that never decreases. It is
// written by one load job and read from any goroutine.
type Progress struct {
	bits atomic.Uint64
}

// Set raises the fraction to f. Lower values are ignored and f is clamped to
// [0,1]. It reports whether the stored value changed.
func (p *Progress) Set(f float64) bool {
	if p == nil || math.IsNaN(f) {
		return false
	}
	f = math.Max(0, math.Min(1, f))
	for {
		old := p.bits.Load()
		if f <= math.Float64frombits(old) {
			return false
		}
		if p.bits.CompareAndSwap(old, math.Float64bits(f)) {
			return true
		}
	}
}

// Value returns the current fraction.
func (p *Progress) Value() float64 {
	if p == nil {
		return 0
	}
	return math.Float64frombits(p.bits.Load())
}
