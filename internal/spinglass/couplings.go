package spinglass

import (
	"github.com/san-kum/skglass/internal/rng"
	"gonum.org/v1/gonum/mat"
)

// Couplings is the interaction matrix J of one configuration.
// J is symmetric with a zero diagonal.
type Couplings struct {
	n int
	m *mat.Dense
}

func NewCouplings(n int) *Couplings {
	return &Couplings{n: n, m: mat.NewDense(n, n, nil)}
}

func (c *Couplings) N() int { return c.n }

func (c *Couplings) At(i, j int) float64 { return c.m.At(i, j) }

// Row returns row k without copying. Callers must not modify it.
func (c *Couplings) Row(k int) []float64 { return c.m.RawRowView(k) }

// IsSymmetric reports whether J[i][j] == J[j][i] for all pairs and every
// diagonal entry is zero.
func (c *Couplings) IsSymmetric() bool {
	for i := 0; i < c.n; i++ {
		if c.m.At(i, i) != 0 {
			return false
		}
	}
	return mat.Equal(c.m, c.m.T())
}

// Generate redraws every coupling: for each pair i < j,
// J[i][j] = J[j][i] = mu + g with g a zero-mean Gaussian of scale sd;
// the diagonal is zero. Draws happen row by row over the upper triangle.
func Generate(c *Couplings, mu, sd float64, src rng.Source) {
	for i := 0; i < c.n; i++ {
		c.m.Set(i, i, 0)
		for j := i + 1; j < c.n; j++ {
			v := mu + src.Normal(sd)
			c.m.Set(i, j, v)
			c.m.Set(j, i, v)
		}
	}
}
