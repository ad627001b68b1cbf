package spinglass

import "errors"

// Domain errors for simulation operations.
var (
	// ErrResourceExhausted indicates a buffer too large to allocate.
	ErrResourceExhausted = errors.New("spinglass: buffer allocation exceeds resource limits")

	// ErrInvalidParams indicates a non-positive size or count.
	ErrInvalidParams = errors.New("spinglass: invalid simulation parameters")
)
