package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/pacesim/internal/config"
	"github.com/san-kum/pacesim/internal/experiment"
	"github.com/san-kum/pacesim/internal/logging"
	"github.com/san-kum/pacesim/internal/pacing"
	"github.com/san-kum/pacesim/internal/storage"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	integrator   string
	paces        int
	tolerance    float64
	period       float64
	amplitude    float64
	duration     float64
	samplingStep float64
	bufferSize   int
	cadence      int
	apdPercent   float64
	initialState string
	params       map[string]string

	strict       bool
	saveState    string
	seriesLen    int
	steadyFirst  bool
	cycleLengths []float64
	alternans    float64
	workers      int
	failFast     bool
	filterModel  string
	filterKind   string
	limit        int
	outputPath   string
	reduceBy     string
	liveLoop     string
)

// main registers the pacesim commands and exits with status 1 when a
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "pacesim",
		Short:         "pacing convergence analysis for cardiac cell models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.NewLogger(logLevel, os.Stderr))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run store directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "pace until steady state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSteadyState,
	}
	addPacingFlags(runCmd)
	runCmd.Flags().StringVar(&saveState, "save-state", "", "write the final state to this file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [model]",
		Short: "pace with the online convergence classifier",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze,
	}
	addPacingFlags(analyzeCmd)
	analyzeCmd.Flags().IntVar(&bufferSize, "buffer", config.DefaultBufferSize, "classifier window length in paces")
	analyzeCmd.Flags().IntVar(&cadence, "cadence", config.DefaultCadence, "classify every N paces")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "abort on a numerical assertion")
	analyzeCmd.Flags().StringVar(&saveState, "save-state", "", "write the final state to this file")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [stateA] [stateB]",
		Short: "distance between the paces started from two states",
		Args:  cobra.ExactArgs(3),
		RunE:  runCompare,
	}
	addPacingFlags(compareCmd)
	compareCmd.Flags().StringVar(&reduceBy, "reduce", "max", "collapse the distance trace by max, mean or final")

	apdCmd := &cobra.Command{
		Use:   "apd [model]",
		Short: "measure action potential duration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAPD,
	}
	addPacingFlags(apdCmd)
	apdCmd.Flags().Float64Var(&apdPercent, "percent", config.DefaultAPDPercent, "repolarization percent")
	apdCmd.Flags().IntVar(&seriesLen, "series", 0, "measure N consecutive paces and save them")
	apdCmd.Flags().BoolVar(&steadyFirst, "steady", false, "pace to steady state before measuring")

	restitutionCmd := &cobra.Command{
		Use:   "restitution [model]",
		Short: "dynamic restitution sweep over cycle lengths",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRestitution,
	}
	addPacingFlags(restitutionCmd)
	restitutionCmd.Flags().Float64Var(&apdPercent, "percent", config.DefaultAPDPercent, "repolarization percent")
	restitutionCmd.Flags().Float64SliceVar(&cycleLengths, "cycle-lengths", []float64{1000, 800, 600, 500, 400, 350, 300}, "cycle lengths, visited in order")
	restitutionCmd.Flags().Float64Var(&alternans, "alternans", 5, "APD difference flagging alternans")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model...]",
		Short: "steady-state runs of several models in parallel",
		RunE:  runEnsemble,
	}
	addPacingFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")
	ensembleCmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop the remaining runs after a failure")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&filterModel, "model", "", "only runs of this model")
	listCmd.Flags().StringVar(&filterKind, "kind", "", "only runs of this kind (run, analyze, apd, restitution)")
	listCmd.Flags().IntVar(&limit, "limit", 0, "show at most N runs")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "pace with a live convergence monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addPacingFlags(liveCmd)
	liveCmd.Flags().StringVar(&liveLoop, "loop", "analysis", "loop to run (analysis, steady)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list cell models and their parameters",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [model]",
		Short: "print the resolved configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printConfig,
	}
	addPacingFlags(configCmd)
	configCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(runCmd, analyzeCmd, compareCmd, apdCmd, restitutionCmd, ensembleCmd,
		listCmd, plotCmd, exportCmd, liveCmd, modelsCmd, presetsCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPacingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, rk4, rk45)")
	f.IntVar(&paces, "paces", config.DefaultPaces, "maximum number of paces")
	f.Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "steady-state MRMS threshold")
	f.Float64Var(&period, "period", 1000, "basic cycle length")
	f.Float64Var(&amplitude, "amplitude", 0, "stimulus amplitude")
	f.Float64Var(&duration, "duration", 0, "stimulus duration")
	f.Float64Var(&samplingStep, "sampling-step", 0, "trajectory sampling interval")
	f.StringVar(&initialState, "initial-state", "", "start from the state in this file")
	f.StringToStringVar(&params, "param", nil, "model parameter override, name=value")
}

// resolveConfig layers, lowest first: the model's preset (1hz unless
// --preset is given), the --config file, then flags set on the command line.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if model == "" {
			model = cfg.Model
		}
	}
	if model == "" {
		model = config.DefaultModel
	}

	if cfg == nil {
		name := preset
		if name == "" {
			name = "1hz"
		}
		cfg = config.GetPreset(model, name)
		if cfg == nil {
			if preset != "" {
				return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
			}
			cfg = config.DefaultConfig()
		}
	}
	cfg.Model = model

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("paces") {
		cfg.Paces = paces
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("period") {
		cfg.Protocol.Period = period
	}
	if flags.Changed("amplitude") {
		cfg.Protocol.Amplitude = amplitude
	}
	if flags.Changed("duration") {
		cfg.Protocol.Duration = duration
	}
	if flags.Changed("sampling-step") {
		cfg.Protocol.SamplingStep = samplingStep
	}
	if flags.Changed("buffer") {
		cfg.BufferSize = bufferSize
	}
	if flags.Changed("cadence") {
		cfg.Cadence = cadence
	}
	if flags.Changed("percent") {
		cfg.APDPercent = apdPercent
	}
	if flags.Changed("initial-state") {
		cfg.InitialStateFile = initialState
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	} else if cfg.LogLevel != logLevel {
		slog.SetDefault(logging.NewLogger(cfg.LogLevel, os.Stderr))
	}

	if len(params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(params))
		}
		for name, raw := range params {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("--param %s: %w", name, err)
			}
			cfg.Params[name] = v
		}
	}

	return cfg, cfg.Validate()
}

func modelArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func setup(cmd *cobra.Command, model string, opts ...pacing.Option) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, model)
	if err != nil {
		return nil, err
	}
	return experiment.New(cfg, experiment.NewRegistry(), opts...)
}

func openStore(exp *experiment.Experiment) (*storage.Store, error) {
	dir := dataDir
	if exp != nil {
		dir = exp.Config().DataDir
	}
	st := storage.New(dir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func saveRun(ctx context.Context, exp *experiment.Experiment, run *storage.Run) (string, error) {
	st, err := openStore(exp)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.Save(ctx, run)
}
