package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/vhci/internal/config"
	"github.com/san-kum/vhci/internal/experiment"
	"github.com/san-kum/vhci/internal/storage"
	"github.com/san-kum/vhci/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	verbose     bool
	metricsAddr string

	configFile string
	preset     string
	nStates    int
	threads    int
	eps1       float64
	tol        float64
	maxIter    int
	screening  bool
	pt2Mode    string
	eps2       float64
	eps3       float64
	walkers    int
	samples    int
	seed       uint64
	checkpoint string
	noSave     bool

	outFile string
	force   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vhci",
		Short:         "vibrational heat-bath configuration interaction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vhci", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := newRunCmd()

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in systems",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [file]",
		Short: "write a preset as an editable config",
		Args:  cobra.ExactArgs(2),
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "energies and convergence of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, presetsCmd, initCmd, listCmd, showCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRunCmd binds the run flags to their package variables, resetting them
// to their defaults.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run HCI and the perturbative correction",
		Args:  cobra.NoArgs,
		RunE:  runCalculation,
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "yaml config file")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "built-in system")
	cmd.Flags().IntVar(&nStates, "nstates", config.DefaultNStates, "number of roots")
	cmd.Flags().IntVar(&threads, "threads", 0, "worker threads (0 = all cores)")
	cmd.Flags().Float64Var(&eps1, "eps1", config.DefaultEps1, "variational selection threshold")
	cmd.Flags().Float64Var(&tol, "tol", config.DefaultTol, "stop when added/size falls to this")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIter, "maximum HCI iterations")
	cmd.Flags().BoolVar(&screening, "single-double", true, "add effective single/double terms to heat-bath selection")
	cmd.Flags().StringVar(&pt2Mode, "pt2", config.PT2Deterministic, "correction: none, deterministic, stochastic, semistochastic, compare")
	cmd.Flags().Float64Var(&eps2, "eps2", config.DefaultEps2, "perturbative threshold")
	cmd.Flags().Float64Var(&eps3, "eps3", -1, "sampling threshold (semistochastic)")
	cmd.Flags().IntVar(&walkers, "walkers", config.DefaultWalkers, "walkers per sample")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of samples")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "sampling seed")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "basis checkpoint file")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	return cmd
}

// loadConfig resolves the run configuration: preset, then config file, then
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		return nil, errors.New("one of --config or --preset is required")
	}

	flags := cmd.Flags()
	if flags.Changed("nstates") {
		cfg.NStates = nStates
	}
	if flags.Changed("threads") {
		cfg.Threads = threads
	}
	if flags.Changed("eps1") {
		cfg.HCI.Eps1 = eps1
	}
	if flags.Changed("tol") {
		cfg.HCI.Tol = tol
	}
	if flags.Changed("max-iter") {
		cfg.HCI.MaxIter = maxIter
	}
	if flags.Changed("single-double") {
		cfg.HCI.SingleDoubleScreening = screening
	}
	if flags.Changed("pt2") {
		cfg.PT2.Mode = pt2Mode
	}
	if flags.Changed("eps2") {
		cfg.PT2.Eps2 = eps2
	}
	if flags.Changed("eps3") {
		cfg.PT2.Eps3 = eps3
	}
	if flags.Changed("walkers") {
		cfg.PT2.Walkers = walkers
	}
	if flags.Changed("samples") {
		cfg.PT2.Samples = samples
	}
	if flags.Changed("seed") {
		cfg.PT2.Seed = seed
	}
	if flags.Changed("checkpoint") {
		cfg.Basis.Checkpoint = checkpoint
	}
	return cfg, nil
}

func runCalculation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Threads > 0 {
		runtime.GOMAXPROCS(cfg.Threads)
	}

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
		slog.Info("serving metrics", "addr", metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, slog.Default())
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("system: %s (%d modes, %d terms)\n", cfg.Name, len(cfg.Frequencies), len(cfg.ForceConstants))
	out, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	meta := exp.Metadata(out)

	fmt.Printf("completed in %v\n", out.Elapsed.Round(time.Millisecond))
	fmt.Println(viz.Metric("basis", fmt.Sprintf("%d states", meta.BasisSize)) + "  " +
		viz.Metric("iterations", fmt.Sprintf("%d", len(meta.History))))
	if len(meta.History) > 1 {
		fmt.Println(viz.MetricLabel.Render("growth: ") + viz.Sparkline(viz.SizeSeries(meta.History), 40))
	}
	fmt.Println()
	if err := viz.EnergyTable(os.Stdout, energyRows(meta)); err != nil {
		return err
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(meta, out.HCI.Basis)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func energyRows(meta *storage.RunMetadata) []storage.EnergyRow {
	rows := make([]storage.EnergyRow, len(meta.Energies))
	for n, e := range meta.Energies {
		rows[n] = storage.EnergyRow{Root: n, Variational: e, Total: meta.Total(n)}
		if n < len(meta.Labels) {
			rows[n].Label = meta.Labels[n]
		}
		if n < len(meta.Corrections) {
			rows[n].Correction = meta.Corrections[n]
		}
		if n < len(meta.Sigma) {
			rows[n].Sigma = meta.Sigma[n]
		}
	}
	return rows
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODES\tTERMS\tROOTS\tPT2")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			name, len(cfg.Frequencies), len(cfg.ForceConstants), cfg.NStates, cfg.PT2.Mode)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if _, err := os.Stat(args[1]); err == nil && !force {
		return fmt.Errorf("%s exists, use --force to overwrite", args[1])
	}
	if err := config.Save(args[1], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tDURATION\tBASIS\tROOTS\tPT2\tE0")

	for _, run := range runs {
		e0 := "-"
		if len(run.Energies) > 0 {
			e0 = fmt.Sprintf("%.4f", run.Total(0))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seconds,
			run.BasisSize,
			run.NStates,
			run.PT2Mode,
			e0,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("run %s", meta.ID)))
	fmt.Println(viz.Metric("system", meta.Name) + "  " + viz.Metric("modes", fmt.Sprintf("%d", meta.Modes)))
	fmt.Println(viz.Metric("basis", fmt.Sprintf("%d", meta.BasisSize)) + "  " +
		viz.Metric("eps1", fmt.Sprintf("%g", meta.Eps1)) + "  " +
		viz.Metric("pt2", meta.PT2Mode))
	fmt.Println()

	if err := viz.EnergyTable(os.Stdout, rows); err != nil {
		return err
	}

	if plot := viz.ConvergencePlot(meta.History, 0, 60); plot != "" {
		fmt.Println()
		fmt.Println(viz.Separator(60))
		fmt.Println(plot)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var quanta [][]int
	basis, err := storage.LoadBasis(st.BasisPath(runID), make([]float64, meta.Modes))
	switch {
	case err == nil:
		for _, s := range basis.States() {
			quanta = append(quanta, s.QuantaVector())
		}
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	if outFile == "" {
		return storage.ExportJSONTo(os.Stdout, meta, quanta)
	}
	if err := storage.ExportJSON(outFile, meta, quanta); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}
