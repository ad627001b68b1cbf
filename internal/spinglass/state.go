package spinglass

import (
	"context"

	"github.com/san-kum/skglass/internal/rng"
)

// State owns every buffer needed to compute one grid cell. Buffers are
// allocated once and reset between cells.
type State struct {
	params Params

	Spins      Spins
	Couplings  *Couplings
	Trajectory *Trajectory
	Stats      *Accumulator

	// OnConfiguration, when set, is called after each configuration of a
	// cell with the number completed so far.
	OnConfiguration func(done, total int)
}

// NewState validates p and allocates the buffers it needs.
func NewState(p Params) (*State, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkAlloc("couplings", p.N, p.N); err != nil {
		return nil, err
	}
	if err := checkAlloc("trajectory", p.N, p.TDim); err != nil {
		return nil, err
	}

	return &State{
		params:     p,
		Spins:      NewSpins(p.N),
		Couplings:  NewCouplings(p.N),
		Trajectory: NewTrajectory(p.N, p.TDim),
		Stats:      NewAccumulator(p.N, p.TDim),
	}, nil
}

func (s *State) Params() Params { return s.params }

// Reset returns the state to the start of a cell: all spins +1, all
// accumulators and the trajectory zeroed.
func (s *State) Reset() {
	s.Spins.Reset()
	s.Trajectory.Reset()
	s.Stats.Reset()
}

// RunCell computes the observables of the cell (mu, sd). Spins carry over
// between configurations; couplings are redrawn for each one. The context
// is checked between configurations.
func (s *State) RunCell(ctx context.Context, mu, sd float64, src rng.Source) (Observables, error) {
	s.Reset()
	sampler := NewSampler(s.Spins, s.Couplings, src)

	for d := 0; d < s.params.ConfNum; d++ {
		if err := ctx.Err(); err != nil {
			return Observables{}, err
		}

		Generate(s.Couplings, mu, sd, src)
		sampler.Thermalize(s.params.Thermal)
		sampler.Sample(s.Trajectory)
		s.Stats.Add(s.Trajectory, s.Couplings)

		if s.OnConfiguration != nil {
			s.OnConfiguration(d+1, s.params.ConfNum)
		}
	}

	return s.Stats.Observables(), nil
}
