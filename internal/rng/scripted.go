package rng

// Scripted replays fixed uniform and Gaussian sequences, wrapping around
// when exhausted. Normal returns scale times the next scripted deviate.
type Scripted struct {
	Uniforms []float64
	Normals  []float64

	ui, ni int
}

// NewScripted returns a Scripted source over the given sequences.
func NewScripted(uniforms, normals []float64) *Scripted {
	return &Scripted{Uniforms: uniforms, Normals: normals}
}

func (s *Scripted) Float64() float64 {
	if len(s.Uniforms) == 0 {
		panic("rng: scripted source has no uniform values")
	}
	v := s.Uniforms[s.ui%len(s.Uniforms)]
	s.ui++
	return v
}

func (s *Scripted) Normal(scale float64) float64 {
	if len(s.Normals) == 0 {
		panic("rng: scripted source has no normal values")
	}
	v := s.Normals[s.ni%len(s.Normals)]
	s.ni++
	return scale * v
}

// UniformDraws reports how many uniform values have been consumed.
func (s *Scripted) UniformDraws() int { return s.ui }

// NormalDraws reports how many Gaussian values have been consumed.
func (s *Scripted) NormalDraws() int { return s.ni }
