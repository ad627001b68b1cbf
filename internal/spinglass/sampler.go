package spinglass

import (
	"github.com/san-kum/skglass/internal/rng"
	"gonum.org/v1/gonum/mat"
)

// Trajectory records one column of spins per sampling sweep: row i is the
// time series of spin i.
type Trajectory struct {
	tdim int
	m    *mat.Dense
}

func NewTrajectory(n, tdim int) *Trajectory {
	return &Trajectory{tdim: tdim, m: mat.NewDense(n, tdim, nil)}
}

// Len is the number of sampled sweeps (tdim).
func (t *Trajectory) Len() int { return t.tdim }

// Series returns the time series of spin i without copying.
func (t *Trajectory) Series(i int) []float64 { return t.m.RawRowView(i) }

// Column copies the configuration sampled at time col into dst.
func (t *Trajectory) Column(dst []float64, col int) []float64 {
	return mat.Col(dst, col, t.m)
}

func (t *Trajectory) setColumn(col int, s Spins) { t.m.SetCol(col, s) }

func (t *Trajectory) Reset() { t.m.Zero() }

// Sampler drives a spin configuration through sweeps against fixed
// couplings.
type Sampler struct {
	spins Spins
	J     *Couplings
	src   rng.Source
}

func NewSampler(spins Spins, J *Couplings, src rng.Source) *Sampler {
	return &Sampler{spins: spins, J: J, src: src}
}

// Thermalize runs count sweeps and discards them.
func (s *Sampler) Thermalize(count int) {
	for i := 0; i < count; i++ {
		s.spins.Sweep(s.J, s.src)
	}
}

// Sample runs traj.Len() sweeps, continuing from the current spins, and
// stores the configuration after sweep t in column t.
func (s *Sampler) Sample(traj *Trajectory) {
	for t := 0; t < traj.Len(); t++ {
		s.spins.Sweep(s.J, s.src)
		traj.setColumn(t, s.spins)
	}
}
