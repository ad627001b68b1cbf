package scan

import (
	"fmt"

	"github.com/san-kum/skglass/internal/grid"
)

// CellError wraps a fatal error with the cell being processed.
type CellError struct {
	Cell    grid.Cell
	Op      string
	Wrapped error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("scan: %s cell %s: %v", e.Op, e.Cell, e.Wrapped)
}

func (e *CellError) Unwrap() error {
	return e.Wrapped
}
