package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/skglass/internal/config"
	"github.com/san-kum/skglass/internal/export"
	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/metrics"
	"github.com/san-kum/skglass/internal/scan"
	"github.com/san-kum/skglass/internal/storage"
	"github.com/san-kum/skglass/internal/viz"
)

var (
	configFile string
	preset     string

	spins   int
	tdim    int
	confNum int
	thermal int
	muAxis  grid.Axis
	sdAxis  grid.Axis

	seed     uint64
	seedMode string
	workers  int
	logLevel string

	storeDriver string
	outDir      string
	dsn         string
	bucket      string
	prefix      string
	region      string
	endpoint    string
	pathStyle   bool
	metricsAddr string

	// plot
	along string
	index int
	// status
	stateFilter string
	// reset
	stuck bool
	// watch
	interval     time.Duration
	exitWhenDone bool
	theme        string
	// export-csv, export-json
	csvOut  string
	jsonOut string
)

// main is the entry point for the skglass CLI. With no subcommand it runs
// the full scan. It exits with status 1 if the command returns an error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skglass",
		Short:         "Sherrington-Kirkpatrick spin glass phase scan",
		Args:          cobra.NoArgs,
		RunE:          runScan,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration (see presets)")
	pf.IntVar(&spins, "spins", config.DefaultSpins, "number of spins N")
	pf.IntVar(&tdim, "tdim", config.DefaultTDim, "sampled sweeps per configuration")
	pf.IntVar(&confNum, "conf-num", config.DefaultConfNum, "coupling configurations per cell")
	pf.IntVar(&thermal, "thermal", config.DefaultThermal, "thermalization sweeps per configuration")
	pf.Float64Var(&muAxis.Min, "mu-min", config.DefaultMu.Min, "first mu value")
	pf.Float64Var(&muAxis.Max, "mu-max", config.DefaultMu.Max, "last mu value")
	pf.Float64Var(&muAxis.Step, "mu-step", config.DefaultMu.Step, "mu step")
	pf.Float64Var(&sdAxis.Min, "sd-min", config.DefaultSD.Min, "first sd value")
	pf.Float64Var(&sdAxis.Max, "sd-max", config.DefaultSD.Max, "last sd value")
	pf.Float64Var(&sdAxis.Step, "sd-step", config.DefaultSD.Step, "sd step")
	pf.Uint64Var(&seed, "seed", 0, "random seed")
	pf.StringVar(&seedMode, "seed-mode", config.SeedFixed, "seeding: fixed, time or worker")
	pf.IntVar(&workers, "workers", 1, "concurrent scan workers in this process")
	pf.StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&storeDriver, "store", storage.DriverFS, "result store: fs, sqlite, postgres or s3")
	pf.StringVar(&outDir, "out", ".", "directory for fs result files")
	pf.StringVar(&dsn, "dsn", "", "sqlite path or postgres URL")
	pf.StringVar(&bucket, "bucket", "", "s3 bucket")
	pf.StringVar(&prefix, "prefix", "", "s3 key prefix")
	pf.StringVar(&region, "region", "", "s3 region")
	pf.StringVar(&endpoint, "endpoint", "", "s3 endpoint (MinIO)")
	pf.BoolVar(&pathStyle, "path-style", false, "s3 path-style addressing")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during a scan")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the scan, resuming whatever is not yet claimed",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show the state of every grid cell",
		Args:  cobra.NoArgs,
		RunE:  showStatus,
	}
	statusCmd.Flags().StringVar(&stateFilter, "state", "", "only show cells in this state (pending, claimed, done)")

	resetCmd := &cobra.Command{
		Use:   "reset [mu_index sd_index]",
		Short: "delete one cell's entry, or all stuck claims with --stuck",
		Long: `Delete the entry for one cell so the next run recomputes it, or with
--stuck clear every claimed cell that never completed.

A claim held by a live worker looks the same as one left by a crashed
worker, so only use --stuck while no scan is running.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: resetCells,
	}
	resetCmd.Flags().BoolVar(&stuck, "stuck", false, "clear every claimed cell that has no result")

	plotCmd := &cobra.Command{
		Use:   "plot <observable>",
		Short: "plot xsg, xuni, q, m or c along one grid axis",
		Args:  cobra.ExactArgs(1),
		RunE:  plotObservable,
	}
	plotCmd.Flags().StringVar(&along, "along", viz.AlongMu, "axis to plot along (mu or sd)")
	plotCmd.Flags().IntVar(&index, "index", 0, "index on the other axis")

	heatmapCmd := &cobra.Command{
		Use:   "heatmap <observable> <out.png>",
		Short: "render an observable over the whole grid",
		Args:  cobra.ExactArgs(2),
		RunE:  renderHeatmap,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv",
		Short: "export completed cells to CSV",
		Args:  cobra.NoArgs,
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&csvOut, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "export run parameters and completed cells to JSON",
		Args:  cobra.NoArgs,
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "output", "o", "", "output file (default stdout)")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "live progress view of a running scan",
		Args:  cobra.NoArgs,
		RunE:  watchScan,
	}
	watchCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	watchCmd.Flags().BoolVar(&exitWhenDone, "exit-when-done", false, "quit once every cell is done")
	watchCmd.Flags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "print the effective configuration, or save it to path",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(runCmd, statusCmd, resetCmd, plotCmd, heatmapCmd, exportCSVCmd, exportJSONCmd, watchCmd, presetsCmd, configCmd)
	return rootCmd
}

// resolveConfig layers defaults, config file, preset and explicit flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		p, ok := config.GetPreset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("spins") {
		cfg.Spins = spins
	}
	if flags.Changed("tdim") {
		cfg.TDim = tdim
	}
	if flags.Changed("conf-num") {
		cfg.ConfNum = confNum
	}
	if flags.Changed("thermal") {
		cfg.Thermal = thermal
	}
	if flags.Changed("mu-min") {
		cfg.Mu.Min = muAxis.Min
	}
	if flags.Changed("mu-max") {
		cfg.Mu.Max = muAxis.Max
	}
	if flags.Changed("mu-step") {
		cfg.Mu.Step = muAxis.Step
	}
	if flags.Changed("sd-min") {
		cfg.SD.Min = sdAxis.Min
	}
	if flags.Changed("sd-max") {
		cfg.SD.Max = sdAxis.Max
	}
	if flags.Changed("sd-step") {
		cfg.SD.Step = sdAxis.Step
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("seed-mode") {
		cfg.SeedMode = seedMode
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("store") {
		cfg.Store.Driver = storeDriver
	}
	if flags.Changed("out") {
		cfg.Store.Dir = outDir
	}
	if flags.Changed("dsn") {
		cfg.Store.DSN = dsn
	}
	if flags.Changed("bucket") {
		cfg.Store.Bucket = bucket
	}
	if flags.Changed("prefix") {
		cfg.Store.Prefix = prefix
	}
	if flags.Changed("region") {
		cfg.Store.Region = region
	}
	if flags.Changed("endpoint") {
		cfg.Store.Endpoint = endpoint
	}
	if flags.Changed("path-style") {
		cfg.Store.PathStyle = pathStyle
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return cfg, nil
}

// setup resolves the configuration and opens the result store.
func setup(ctx context.Context, cmd *cobra.Command) (*config.Config, storage.Store, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

var (
	summaryLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	summaryValue = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, st, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	var rec *metrics.Recorder
	if cfg.MetricsAddr != "" {
		rec = metrics.New()
		go func() {
			if err := rec.Serve(ctx, cfg.MetricsAddr); err != nil {
				logrus.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	for _, w := range cfg.Warnings() {
		logrus.Warn(w)
	}

	g := cfg.Grid()
	logrus.WithFields(logrus.Fields{
		"spins":    cfg.Spins,
		"tdim":     cfg.TDim,
		"conf_num": cfg.ConfNum,
		"thermal":  cfg.Thermal,
		"cells":    g.Len(),
		"workers":  cfg.Workers,
		"store":    cfg.Store.Driver,
	}).Info("starting scan")

	sum, err := scan.RunWorkers(ctx, cfg.Workers, st, g, cfg.Params(), cfg.Sources(), scan.Options{Metrics: rec})

	row := func(label, value string) {
		fmt.Println(summaryLabel.Render(label) + summaryValue.Render(value))
	}
	row("computed", strconv.Itoa(sum.Computed))
	row("skipped", strconv.Itoa(sum.Skipped))
	row("elapsed", sum.Elapsed.Round(time.Millisecond).String())

	if errors.Is(err, context.Canceled) {
		return errors.New("scan interrupted; in-flight cells stay claimed (see reset --stuck)")
	}
	return err
}

func loadReport(cmd *cobra.Command) (*config.Config, *grid.Grid, scan.Report, error) {
	ctx := cmd.Context()
	cfg, st, err := setup(ctx, cmd)
	if err != nil {
		return nil, nil, scan.Report{}, err
	}
	defer st.Close()

	g := cfg.Grid()
	rep, err := scan.Status(ctx, st, g)
	return cfg, g, rep, err
}

func showStatus(cmd *cobra.Command, args []string) error {
	_, _, rep, err := loadReport(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CELL\tMU\tSD\tSTATE\tXSG\tXUNI\tQ\tM\tC")
	for _, cs := range rep.Cells {
		if stateFilter != "" && cs.State.String() != stateFilter {
			continue
		}
		if cs.State != scan.Done {
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\t\t\t\t\t\n", cs.Cell.Key(), cs.Mu, cs.SD, cs.State)
			continue
		}
		r := cs.Result
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\n",
			cs.Cell.Key(), cs.Mu, cs.SD, cs.State, r.Xsg, r.Xuni, r.Q, r.M, r.C)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%s %d/%d done, %d claimed, %d pending\n",
		viz.ProgressBar(rep.Fraction(), 30), rep.Done, rep.Total(), rep.Claimed, rep.Pending)
	if rep.Foreign > 0 {
		fmt.Printf("%d entries do not belong to this grid\n", rep.Foreign)
	}
	return nil
}

func resetCells(cmd *cobra.Command, args []string) error {
	if stuck == (len(args) == 2) {
		return errors.New("give either mu_index and sd_index, or --stuck")
	}

	ctx := cmd.Context()
	cfg, st, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	g := cfg.Grid()

	if stuck {
		cleared, err := scan.ResetClaims(ctx, st, g)
		for _, c := range cleared {
			fmt.Printf("cleared %s\n", c.Key())
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d stuck claims cleared\n", len(cleared))
		return nil
	}

	a, errA := strconv.Atoi(args[0])
	b, errB := strconv.Atoi(args[1])
	if err := errors.Join(errA, errB); err != nil {
		return fmt.Errorf("cell indices: %w", err)
	}
	cell := grid.Cell{MuIndex: a, SDIndex: b}
	if !g.Contains(cell) {
		return fmt.Errorf("cell %s is outside the %d×%d grid", cell, len(g.Mu), len(g.SD))
	}
	if err := scan.ResetCell(ctx, st, cell); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("cell %s has no entry", cell.Key())
		}
		return err
	}
	fmt.Printf("reset %s\n", cell.Key())
	return nil
}

func plotObservable(cmd *cobra.Command, args []string) error {
	_, g, rep, err := loadReport(cmd)
	if err != nil {
		return err
	}

	xs, ys, err := viz.Profile(rep, g, args[0], along, index)
	if err != nil {
		return err
	}

	other, fixed := viz.AlongSD, g.SD
	if along == viz.AlongSD {
		other, fixed = viz.AlongMu, g.Mu
	}
	caption := fmt.Sprintf("%s along %s (%s = %g)", args[0], along, other, fixed[index])
	fmt.Println(viz.PlotProfile(xs, ys, caption))
	fmt.Println()
	fmt.Println(viz.Sparkline(ys, 60))
	return nil
}

func renderHeatmap(cmd *cobra.Command, args []string) error {
	_, g, rep, err := loadReport(cmd)
	if err != nil {
		return err
	}

	p, err := export.Heatmap(rep, g, args[0])
	if err != nil {
		return err
	}
	if err := export.SaveHeatmap(p, args[1]); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d/%d cells)\n", args[1], rep.Done, rep.Total())
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, _, rep, err := loadReport(cmd)
	if err != nil {
		return err
	}
	if rep.Done == 0 {
		return fmt.Errorf("no data to export")
	}

	out := os.Stdout
	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.WriteCSV(out, rep)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, _, rep, err := loadReport(cmd)
	if err != nil {
		return err
	}
	if rep.Done == 0 {
		return fmt.Errorf("no data to export")
	}

	out := os.Stdout
	if jsonOut != "" {
		f, err := os.Create(jsonOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.WriteJSON(out, export.NewExportData(cfg.Params(), cfg.Mu, cfg.SD, rep))
}

func watchScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, st, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	// keep store logs out of the alt screen
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.ErrorLevel)

	viz.SetTheme(theme)
	g := cfg.Grid()
	m := viz.NewWatchModel(func(ctx context.Context) (scan.Report, error) {
		return scan.Status(ctx, st, g)
	}, len(g.SD), interval)
	m.ExitWhenDone = exitWhenDone

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPINS\tTDIM\tCONF\tTHERMAL\tCELLS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			name, p.Spins, p.TDim, p.ConfNum, p.Thermal, p.Mu.Size()*p.SD.Size(), p.Description)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if err := config.Save(args[0], cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
