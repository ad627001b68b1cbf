package spinglass

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Observables are the five thermodynamic quantities of one grid cell.
type Observables struct {
	Xsg  float64 // spin-glass susceptibility
	Xuni float64 // uniform susceptibility
	Q    float64 // spin-glass order parameter
	M    float64 // magnetization
	C    float64 // specific heat
}

// Covariance returns the population covariance of the time series of
// spins i and j:
//
//	(1/T)·Σ_t s_i(t)s_j(t) − (1/T²)·(Σ_t s_i(t))·(Σ_t s_j(t))
func Covariance(traj *Trajectory, i, j int) float64 {
	si, sj := traj.Series(i), traj.Series(j)
	T := float64(traj.Len())
	return floats.Dot(si, sj)/T - floats.Sum(si)*floats.Sum(sj)/(T*T)
}

// Energy returns −Σ_{i≤j} J[i][j]·s_i·s_j, each unordered pair counted once.
func Energy(J *Couplings, s []float64) float64 {
	e := 0.0
	for i := range s {
		e -= s[i] * floats.Dot(J.Row(i)[i:], s[i:])
	}
	return e
}

// Accumulator collects the configuration averages of one cell. It is
// reset per cell, not per configuration.
type Accumulator struct {
	n, tdim int

	mag  float64 // Σ over configurations and spins of Σ_t s_i(t)
	sgop float64 // Σ over configurations and spins of (Σ_t s_i(t))²

	sumC  *mat.Dense // Σ cov(i,j)
	prodC *mat.Dense // Σ cov(i,j)²

	prodSumE float64 // Σ over configurations of (Σ_t E(t))²
	sumProdE float64 // Σ over configurations of Σ_t E(t)²

	configs int

	aux []float64
	col []float64
}

func NewAccumulator(n, tdim int) *Accumulator {
	return &Accumulator{
		n:     n,
		tdim:  tdim,
		sumC:  mat.NewDense(n, n, nil),
		prodC: mat.NewDense(n, n, nil),
		aux:   make([]float64, n),
		col:   make([]float64, n),
	}
}

// Reset zeroes every accumulator without reallocating.
func (a *Accumulator) Reset() {
	a.mag, a.sgop = 0, 0
	a.sumC.Zero()
	a.prodC.Zero()
	a.prodSumE, a.sumProdE = 0, 0
	a.configs = 0
}

// Configurations reports how many configurations were added since Reset.
func (a *Accumulator) Configurations() int { return a.configs }

// Add folds one configuration's trajectory and couplings into the
// accumulators.
func (a *Accumulator) Add(traj *Trajectory, J *Couplings) {
	a.addMoments(traj)
	a.addCovariances(traj)
	a.addEnergy(traj, J)
	a.configs++
}

func (a *Accumulator) addMoments(traj *Trajectory) {
	for i := 0; i < a.n; i++ {
		a.aux[i] = floats.Sum(traj.Series(i))
		a.mag += a.aux[i]
		a.sgop += a.aux[i] * a.aux[i]
	}
}

// addCovariances relies on a.aux holding the per-spin time sums.
func (a *Accumulator) addCovariances(traj *Trajectory) {
	T := float64(a.tdim)
	for i := 0; i < a.n; i++ {
		si := traj.Series(i)
		for j := i; j < a.n; j++ {
			cov := floats.Dot(si, traj.Series(j))/T - a.aux[i]*a.aux[j]/(T*T)

			sc := a.sumC.At(i, j) + cov
			a.sumC.Set(i, j, sc)
			a.sumC.Set(j, i, sc)

			pc := a.prodC.At(i, j) + cov*cov
			a.prodC.Set(i, j, pc)
			a.prodC.Set(j, i, pc)
		}
	}
}

// addEnergy skips the first sampled sweep (t=0).
func (a *Accumulator) addEnergy(traj *Trajectory, J *Couplings) {
	var sumE, sumE2 float64
	for t := 1; t < a.tdim; t++ {
		s := traj.Column(a.col, t)
		e := Energy(J, s)
		sumE += e
		sumE2 += e * e
	}
	a.prodSumE += sumE * sumE
	a.sumProdE += sumE2
}

// Observables finalizes the accumulated sums. With no configurations
// added it returns the zero value.
func (a *Accumulator) Observables() Observables {
	if a.configs == 0 {
		return Observables{}
	}
	n := float64(a.n)
	T := float64(a.tdim)
	K := float64(a.configs)

	return Observables{
		M:    math.Abs(a.mag / (n * T * K)),
		Q:    a.sgop / (n * T * T * K),
		Xuni: mat.Sum(a.sumC) / (n * K),
		Xsg:  mat.Sum(a.prodC) / (n * K),
		C:    (a.sumProdE/T - a.prodSumE/(T*T)) / (n * K),
	}
}
