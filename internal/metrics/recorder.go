// Package metrics exposes scan progress as Prometheus metrics. A nil
// *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	reg *prometheus.Registry

	computed  prometheus.Counter
	skipped   prometheus.Counter
	duration  prometheus.Histogram
	gridCells prometheus.Gauge
	workers   prometheus.Gauge
}

// New registers the scan metrics on a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		computed: f.NewCounter(prometheus.CounterOpts{
			Name: "skglass_cells_computed_total",
			Help: "Grid cells claimed and computed by this process",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "skglass_cells_skipped_total",
			Help: "Grid cells skipped because they were already claimed or done",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "skglass_cell_duration_seconds",
			Help:    "Wall time to compute one grid cell",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 14), // 1ms to ~18h
		}),
		gridCells: f.NewGauge(prometheus.GaugeOpts{
			Name: "skglass_grid_cells",
			Help: "Number of cells in the scanned grid",
		}),
		workers: f.NewGauge(prometheus.GaugeOpts{
			Name: "skglass_workers_active",
			Help: "Scan workers currently running",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) CellComputed(d time.Duration) {
	if r == nil {
		return
	}
	r.computed.Inc()
	r.duration.Observe(d.Seconds())
}

func (r *Recorder) CellSkipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

func (r *Recorder) SetGridCells(n int) {
	if r == nil {
		return
	}
	r.gridCells.Set(float64(n))
}

// WorkerStarted increments the active worker gauge and returns the
// matching decrement.
func (r *Recorder) WorkerStarted() func() {
	if r == nil {
		return func() {}
	}
	r.workers.Inc()
	return r.workers.Dec
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
