package spinglass

import (
	"math"

	"github.com/san-kum/skglass/internal/rng"
	"gonum.org/v1/gonum/floats"
)

// Spins is a configuration of ±1 spins. Values are stored as float64 so
// the local field is a single dot product against a coupling row.
type Spins []float64

// NewSpins returns n spins, all +1.
func NewSpins(n int) Spins {
	s := make(Spins, n)
	s.Reset()
	return s
}

// Reset sets every spin to +1.
func (s Spins) Reset() {
	for i := range s {
		s[i] = 1
	}
}

// Sweep performs len(s) Metropolis proposals against J. Each proposal
// picks a site uniformly at random (with replacement), so a sweep may
// visit a site several times or not at all. A spin flips when
// delta = s[k]·Σ_j J[k][j]s[j] is not positive, otherwise with
// probability exp(-2·delta); the second uniform is drawn only then.
func (s Spins) Sweep(J *Couplings, src rng.Source) {
	n := len(s)
	for p := 0; p < n; p++ {
		k := int(float64(n) * src.Float64())
		if k >= n {
			k = n - 1
		}

		heff := floats.Dot(J.Row(k), s)
		delta := s[k] * heff

		if delta <= 0 || src.Float64() < math.Exp(-2*delta) {
			s[k] = -s[k]
		}
	}
}
