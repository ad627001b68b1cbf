package spinglass

import "fmt"

// maxBufferElements bounds any single float64 buffer (8 GiB).
const maxBufferElements = 1 << 30

// Params fixes the size of a simulation before a run.
type Params struct {
	N       int // total number of spins
	TDim    int // sampling sweeps per configuration
	ConfNum int // coupling configurations per cell
	Thermal int // thermalization sweeps per configuration
}

func (p Params) Validate() error {
	if p.N < 1 {
		return fmt.Errorf("%w: spin count must be positive, got %d", ErrInvalidParams, p.N)
	}
	if p.TDim < 1 {
		return fmt.Errorf("%w: tdim must be positive, got %d", ErrInvalidParams, p.TDim)
	}
	if p.ConfNum < 1 {
		return fmt.Errorf("%w: conf_num must be positive, got %d", ErrInvalidParams, p.ConfNum)
	}
	if p.Thermal < 0 {
		return fmt.Errorf("%w: thermal must not be negative, got %d", ErrInvalidParams, p.Thermal)
	}
	return nil
}

// checkAlloc rejects a rows×cols buffer that would overflow or exceed
// maxBufferElements.
func checkAlloc(what string, rows, cols int) error {
	if rows > maxBufferElements/cols {
		return fmt.Errorf("%w: %s needs %d×%d elements", ErrResourceExhausted, what, rows, cols)
	}
	return nil
}
