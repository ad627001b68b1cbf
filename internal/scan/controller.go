package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/metrics"
	"github.com/san-kum/skglass/internal/rng"
	"github.com/san-kum/skglass/internal/spinglass"
	"github.com/san-kum/skglass/internal/storage"
)

// Summary reports what one Run (or RunWorkers) did.
type Summary struct {
	Computed int
	Skipped  int
	Elapsed  time.Duration
}

func (s *Summary) add(o Summary) {
	s.Computed += o.Computed
	s.Skipped += o.Skipped
}

type Options struct {
	Logger  logrus.FieldLogger // defaults to the standard logger
	Metrics *metrics.Recorder  // may be nil
	// WorkerID tags log lines; a random UUID when empty.
	WorkerID string
	// OnCellDone is called after each computed cell.
	OnCellDone func(cell grid.Cell, r storage.Result)
}

// Controller is a single-threaded scanner over one grid.
type Controller struct {
	store   storage.Store
	grid    *grid.Grid
	state   *spinglass.State
	src     rng.Source
	log     logrus.FieldLogger
	metrics *metrics.Recorder
	onDone  func(grid.Cell, storage.Result)
}

// NewController allocates the simulation state for p. It fails with
// spinglass.ErrInvalidParams or spinglass.ErrResourceExhausted.
func NewController(st storage.Store, g *grid.Grid, p spinglass.Params, src rng.Source, opts Options) (*Controller, error) {
	state, err := spinglass.NewState(p)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := opts.WorkerID
	if id == "" {
		id = uuid.NewString()
	}

	return &Controller{
		store:   st,
		grid:    g,
		state:   state,
		src:     src,
		log:     logger.WithField("worker", id),
		metrics: opts.Metrics,
		onDone:  opts.OnCellDone,
	}, nil
}

// State exposes the simulation buffers, mainly for progress callbacks.
func (c *Controller) State() *spinglass.State { return c.state }

// Run visits every cell in scan order, computing those it manages to
// claim. It stops at the first store or simulation error.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary
	c.metrics.SetGridCells(c.grid.Len())

	for _, cell := range c.grid.Cells() {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}

		computed, err := c.runCell(ctx, cell)
		if err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		if computed {
			sum.Computed++
		} else {
			sum.Skipped++
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

func (c *Controller) runCell(ctx context.Context, cell grid.Cell) (bool, error) {
	key := cell.Key()
	mu, sd := c.grid.Params(cell)
	log := c.log.WithFields(logrus.Fields{"cell": key, "mu": mu, "sd": sd})

	claimed, err := c.store.Claim(ctx, key)
	if err != nil {
		return false, &CellError{Cell: cell, Op: "claim", Wrapped: err}
	}
	if !claimed {
		log.Debug("cell already claimed, skipping")
		c.metrics.CellSkipped()
		return false, nil
	}

	log.Info("computing cell")
	began := time.Now()

	obs, err := c.state.RunCell(ctx, mu, sd, c.src)
	if err != nil {
		return false, &CellError{Cell: cell, Op: "compute", Wrapped: err}
	}

	res := storage.Result{Mu: mu, SD: sd, Xsg: obs.Xsg, Xuni: obs.Xuni, Q: obs.Q, M: obs.M, C: obs.C}
	if err := c.store.Complete(ctx, key, res); err != nil {
		return false, &CellError{Cell: cell, Op: "complete", Wrapped: err}
	}

	took := time.Since(began)
	c.metrics.CellComputed(took)
	log.WithFields(logrus.Fields{
		"xsg": res.Xsg, "xuni": res.Xuni, "q": res.Q, "m": res.M, "c": res.C,
		"took": took.Round(time.Millisecond),
	}).Info("cell done")

	if c.onDone != nil {
		c.onDone(cell, res)
	}
	return true, nil
}
