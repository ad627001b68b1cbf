package scan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/metrics"
	"github.com/san-kum/skglass/internal/rng"
	"github.com/san-kum/skglass/internal/scan"
	"github.com/san-kum/skglass/internal/spinglass"
	"github.com/san-kum/skglass/internal/storage"
)

var smallParams = spinglass.Params{N: 6, TDim: 8, ConfNum: 2, Thermal: 4}

// failingStore passes claims through and fails every completion.
type failingStore struct {
	storage.Store
}

func (f failingStore) Complete(ctx context.Context, key string, r storage.Result) error {
	return errors.Join(storage.ErrStoreUnavailable, errors.New("disk full"))
}

func readAll(dir string) map[string]string {
	out := map[string]string{}
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	Expect(err).NotTo(HaveOccurred())
	for _, m := range matches {
		data, err := os.ReadFile(m)
		Expect(err).NotTo(HaveOccurred())
		out[filepath.Base(m)] = string(data)
	}
	return out
}

var _ = Describe("Controller", func() {
	var (
		ctx    context.Context
		dir    string
		store  *storage.FileStore
		g      *grid.Grid
		logger *logrus.Logger
		hook   *test.Hook
	)

	newController := func(seed uint64) *scan.Controller {
		c, err := scan.NewController(store, g, smallParams, rng.NewMT(seed), scan.Options{Logger: logger, WorkerID: "w"})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		dir, err = os.MkdirTemp("", "skglass-scan-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		store = storage.NewFileStore(dir)
		Expect(store.Init()).To(Succeed())
		g = grid.New(grid.Axis{Min: 0, Max: 0.2, Step: 0.1}, grid.Axis{Min: 0, Max: 0.1, Step: 0.05})
		logger, hook = test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
	})

	It("computes every cell of a fresh store", func() {
		sum, err := newController(0).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Computed).To(Equal(9))
		Expect(sum.Skipped).To(BeZero())

		files := readAll(dir)
		Expect(files).To(HaveLen(9))
		Expect(files).To(HaveKey("file_2_2.txt"))

		rep, err := scan.Status(ctx, store, g)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Done).To(Equal(9))
		Expect(rep.Fraction()).To(Equal(1.0))
	})

	It("records mu and sd of each cell in its result", func() {
		_, err := newController(0).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		e, err := store.Load(ctx, grid.Cell{MuIndex: 2, SDIndex: 1}.Key())
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Done).To(BeTrue())
		Expect(e.Result.Mu).To(BeNumerically("~", 0.2, 1e-12))
		Expect(e.Result.SD).To(BeNumerically("~", 0.05, 1e-12))
		Expect(e.Result.M).To(And(BeNumerically(">=", 0), BeNumerically("<=", 1)))
		Expect(e.Result.Q).To(And(BeNumerically(">=", 0), BeNumerically("<=", 1)))
	})

	It("is idempotent over a complete store", func() {
		_, err := newController(0).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		before := readAll(dir)

		sum, err := newController(99).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Computed).To(BeZero())
		Expect(sum.Skipped).To(Equal(9))
		Expect(readAll(dir)).To(Equal(before))
	})

	It("recomputes exactly the deleted cell", func() {
		_, err := newController(0).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		before := readAll(dir)

		target := grid.Cell{MuIndex: 1, SDIndex: 1}
		Expect(scan.ResetCell(ctx, store, target)).To(Succeed())
		Expect(readAll(dir)).To(HaveLen(8))

		var done []grid.Cell
		c, err := scan.NewController(store, g, smallParams, rng.NewMT(0), scan.Options{
			Logger:     logger,
			OnCellDone: func(cell grid.Cell, _ storage.Result) { done = append(done, cell) },
		})
		Expect(err).NotTo(HaveOccurred())
		sum, err := c.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Computed).To(Equal(1))
		Expect(done).To(Equal([]grid.Cell{target}))

		after := readAll(dir)
		for name, content := range before {
			if name == target.Key()+".txt" {
				continue
			}
			Expect(after[name]).To(Equal(content), name)
		}
	})

	It("skips cells claimed by someone else", func() {
		ok, err := store.Claim(ctx, "file_0_0")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		sum, err := newController(0).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Computed).To(Equal(8))
		Expect(sum.Skipped).To(Equal(1))

		rep, err := scan.Status(ctx, store, g)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Claimed).To(Equal(1))
		Expect(rep.Cells[0].State).To(Equal(scan.Claimed))
	})

	It("clears stuck claims so they are recomputed", func() {
		for _, key := range []string{"file_0_1", "file_2_0"} {
			_, err := store.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(store.Complete(ctx, "file_1_1", storage.Result{Mu: 0.1, SD: 0.05})).To(Succeed())

		cleared, err := scan.ResetClaims(ctx, store, g)
		Expect(err).NotTo(HaveOccurred())
		Expect(cleared).To(ConsistOf(grid.Cell{MuIndex: 0, SDIndex: 1}, grid.Cell{MuIndex: 2, SDIndex: 0}))

		rep, err := scan.Status(ctx, store, g)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Claimed).To(BeZero())
		Expect(rep.Done).To(Equal(1))
		Expect(rep.Pending).To(Equal(8))
	})

	It("counts entries outside the grid as foreign", func() {
		Expect(store.Complete(ctx, "file_7_7", storage.Result{})).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)).To(Succeed())

		rep, err := scan.Status(ctx, store, g)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Foreign).To(Equal(2))
		Expect(rep.Pending).To(Equal(9))
	})

	It("logs one info line per computed cell and debug lines for skips", func() {
		_, err := store.Claim(ctx, "file_1_2")
		Expect(err).NotTo(HaveOccurred())

		_, err = newController(0).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		var computing, skipping int
		for _, e := range hook.AllEntries() {
			switch {
			case e.Level == logrus.InfoLevel && e.Message == "computing cell":
				computing++
				Expect(e.Data).To(HaveKeyWithValue("worker", "w"))
				Expect(e.Data).To(HaveKey("mu"))
				Expect(e.Data).To(HaveKey("sd"))
			case e.Level == logrus.DebugLevel:
				skipping++
				Expect(e.Data).To(HaveKeyWithValue("cell", "file_1_2"))
			}
		}
		Expect(computing).To(Equal(8))
		Expect(skipping).To(Equal(1))
	})

	It("aborts on a store failure and leaves the cell claimed", func() {
		c, err := scan.NewController(failingStore{store}, g, smallParams, rng.NewMT(0), scan.Options{Logger: logger})
		Expect(err).NotTo(HaveOccurred())

		sum, err := c.Run(ctx)
		Expect(err).To(MatchError(storage.ErrStoreUnavailable))
		Expect(sum.Computed).To(BeZero())

		var cellErr *scan.CellError
		Expect(errors.As(err, &cellErr)).To(BeTrue())
		Expect(cellErr.Cell).To(Equal(grid.Cell{MuIndex: 0, SDIndex: 0}))
		Expect(cellErr.Op).To(Equal("complete"))

		rep, err := scan.Status(ctx, store, g)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Claimed).To(Equal(1))
		Expect(rep.Pending).To(Equal(8))
	})

	It("rejects parameters it cannot allocate", func() {
		_, err := scan.NewController(store, g, spinglass.Params{N: 1 << 16, TDim: 1, ConfNum: 1}, rng.NewMT(0), scan.Options{Logger: logger})
		Expect(err).To(MatchError(spinglass.ErrResourceExhausted))
	})

	It("stops when the context is canceled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		sum, err := newController(0).Run(cctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(sum.Computed).To(BeZero())
		Expect(readAll(dir)).To(BeEmpty())
	})

	Describe("RunWorkers", func() {
		It("computes each cell exactly once across workers", func() {
			g = grid.New(grid.Axis{Min: 0, Max: 0.5, Step: 0.1}, grid.Axis{Min: 0, Max: 0.3, Step: 0.1})
			rec := metrics.New()

			var (
				mu   sync.Mutex
				seen = map[grid.Cell]int{}
			)
			sum, err := scan.RunWorkers(ctx, 4, store, g, smallParams,
				func(i int) rng.Source { return rng.NewMT(rng.DeriveSeed(7, uint64(i))) },
				scan.Options{
					Logger:  logger,
					Metrics: rec,
					OnCellDone: func(cell grid.Cell, _ storage.Result) {
						mu.Lock()
						seen[cell]++
						mu.Unlock()
					},
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Computed).To(Equal(g.Len()))
			Expect(sum.Skipped).To(Equal(3 * g.Len()))
			Expect(seen).To(HaveLen(g.Len()))
			for cell, n := range seen {
				Expect(n).To(Equal(1), cell.String())
			}
		})

		It("rejects a non-positive worker count", func() {
			_, err := scan.RunWorkers(ctx, 0, store, g, smallParams, nil, scan.Options{Logger: logger})
			Expect(err).To(HaveOccurred())
		})

		It("propagates the first fatal error", func() {
			_, err := scan.RunWorkers(ctx, 2, failingStore{store}, g, smallParams,
				func(int) rng.Source { return rng.NewMT(0) }, scan.Options{Logger: logger})
			Expect(err).To(MatchError(storage.ErrStoreUnavailable))
		})
	})
})
