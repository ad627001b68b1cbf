package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/storage"
)

type CellState int

const (
	Pending CellState = iota
	Claimed
	Done
)

func (s CellState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Claimed:
		return "claimed"
	case Done:
		return "done"
	}
	return fmt.Sprintf("CellState(%d)", int(s))
}

type CellStatus struct {
	Cell   grid.Cell
	Mu, SD float64
	State  CellState
	Result storage.Result // valid when State is Done
}

// Report is a snapshot of a store against a grid, in scan order.
type Report struct {
	Cells   []CellStatus
	Pending int
	Claimed int
	Done    int
	// Foreign counts store entries whose key is not a cell of the grid.
	Foreign int
}

func (r Report) Total() int { return len(r.Cells) }

// Fraction is the share of cells that are done.
func (r Report) Fraction() float64 {
	if len(r.Cells) == 0 {
		return 0
	}
	return float64(r.Done) / float64(len(r.Cells))
}

// Status classifies every cell of g from a single listing of st.
func Status(ctx context.Context, st storage.Store, g *grid.Grid) (Report, error) {
	entries, err := st.List(ctx)
	if err != nil {
		return Report{}, err
	}

	byKey := make(map[string]storage.Entry, len(entries))
	var rep Report
	for _, e := range entries {
		cell, err := grid.ParseKey(e.Key)
		if err != nil || !g.Contains(cell) {
			rep.Foreign++
			continue
		}
		byKey[e.Key] = e
	}

	rep.Cells = make([]CellStatus, 0, g.Len())
	for _, cell := range g.Cells() {
		mu, sd := g.Params(cell)
		cs := CellStatus{Cell: cell, Mu: mu, SD: sd}
		e, ok := byKey[cell.Key()]
		switch {
		case !ok:
			cs.State = Pending
			rep.Pending++
		case e.Done:
			cs.State = Done
			cs.Result = e.Result
			rep.Done++
		default:
			cs.State = Claimed
			rep.Claimed++
		}
		rep.Cells = append(rep.Cells, cs)
	}
	return rep, nil
}

// ResetClaims deletes every Claimed-but-not-Done marker so the next scan
// recomputes those cells. Only run it while no scanner is active: a live
// scanner's claim would be removed too.
func ResetClaims(ctx context.Context, st storage.Store, g *grid.Grid) ([]grid.Cell, error) {
	rep, err := Status(ctx, st, g)
	if err != nil {
		return nil, err
	}

	var cleared []grid.Cell
	for _, cs := range rep.Cells {
		if cs.State != Claimed {
			continue
		}
		if err := st.Delete(ctx, cs.Cell.Key()); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return cleared, &CellError{Cell: cs.Cell, Op: "reset", Wrapped: err}
		}
		cleared = append(cleared, cs.Cell)
	}
	return cleared, nil
}

// ResetCell deletes one cell's entry, whatever its state.
func ResetCell(ctx context.Context, st storage.Store, cell grid.Cell) error {
	if err := st.Delete(ctx, cell.Key()); err != nil {
		return &CellError{Cell: cell, Op: "reset", Wrapped: err}
	}
	return nil
}
