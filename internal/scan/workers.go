package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/rng"
	"github.com/san-kum/skglass/internal/spinglass"
	"github.com/san-kum/skglass/internal/storage"
)

// SourceFunc returns the random stream for worker i.
type SourceFunc func(worker int) rng.Source

// RunWorkers runs n controllers concurrently against the same store. They
// share nothing but the store, exactly as n separate processes would. The
// first fatal error cancels the others.
func RunWorkers(ctx context.Context, n int, st storage.Store, g *grid.Grid, p spinglass.Params, sources SourceFunc, opts Options) (Summary, error) {
	if n < 1 {
		return Summary{}, fmt.Errorf("scan: worker count must be positive, got %d", n)
	}
	start := time.Now()

	controllers := make([]*Controller, n)
	for i := range controllers {
		o := opts
		if o.WorkerID != "" && n > 1 {
			o.WorkerID = fmt.Sprintf("%s-%d", opts.WorkerID, i)
		}
		c, err := NewController(st, g, p, sources(i), o)
		if err != nil {
			return Summary{}, err
		}
		controllers[i] = c
	}

	var (
		mu    sync.Mutex
		total Summary
	)
	eg, egCtx := errgroup.WithContext(ctx)
	for _, c := range controllers {
		eg.Go(func() error {
			defer opts.Metrics.WorkerStarted()()
			sum, err := c.Run(egCtx)
			mu.Lock()
			total.add(sum)
			mu.Unlock()
			return err
		})
	}

	err := eg.Wait()
	total.Elapsed = time.Since(start)
	return total, err
}
