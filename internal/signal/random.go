package signal

import (
	"math/rand/v2"
	"time"
)

// Rand is the jitter source; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a PCG-backed source. seed 0 seeds from the clock.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// symmetric maps r.Float64() onto [-amplitude, +amplitude]
func symmetric(r Rand, amplitude float64) float64 {
	return (r.Float64() - 0.5) * 2 * amplitude
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
