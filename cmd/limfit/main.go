package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/climdyn/limfit/internal/config"
	"github.com/climdyn/limfit/internal/lim"
	"github.com/climdyn/limfit/internal/storage"
	"github.com/climdyn/limfit/internal/synthetic"
)

var (
	dataDir    string
	configFile string
	preset     string
	tau0       int
	runName    string
	// forecast
	lead    float64
	initCol int
	// synth
	synthVars  int
	synthSteps int
	synthDecay float64
	synthPer   float64
	synthNoise float64
	synthSeed  uint64
	synthOut   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "limfit",
		Short: "linear inverse model fitting and validation",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".limfit", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "named tolerance preset")
	rootCmd.PersistentFlags().IntVar(&tau0, "tau0", 0, "fitting lag in timesteps (overrides config)")

	fitCmd := &cobra.Command{
		Use:   "fit [dataset.json]",
		Short: "fit a model and save the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&runName, "name", "lim", "run name prefix")

	modesCmd := &cobra.Command{
		Use:   "modes [dataset.json]",
		Short: "print the normal-mode table",
		Args:  cobra.ExactArgs(1),
		RunE:  runModes,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [dataset.json]",
		Short: "run the validity battery and print the report",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	forecastCmd := &cobra.Command{
		Use:   "forecast [dataset.json]",
		Short: "forecast from a column of the dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecast,
	}
	forecastCmd.Flags().Float64Var(&lead, "lead", 1, "lead time in timesteps")
	forecastCmd.Flags().IntVar(&initCol, "init", -1, "initial-condition column (-1 = last)")

	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "generate a synthetic linear-process dataset",
		RunE:  runSynth,
	}
	synthCmd.Flags().IntVar(&synthVars, "vars", 2, "number of variables")
	synthCmd.Flags().IntVar(&synthSteps, "steps", 10000, "number of timesteps")
	synthCmd.Flags().Float64Var(&synthDecay, "decay", 0.1, "per-step decay rate")
	synthCmd.Flags().Float64Var(&synthPer, "period", 0, "oscillation period in timesteps (0 = pure decay, 2-variable only)")
	synthCmd.Flags().Float64Var(&synthNoise, "noise", 1.0, "noise standard deviation")
	synthCmd.Flags().Uint64Var(&synthSeed, "seed", uint64(time.Now().UnixNano()), "random seed")
	synthCmd.Flags().StringVar(&synthOut, "out", "synthetic.json", "output dataset path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  runList,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list tolerance presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(fitCmd, modesCmd, validateCmd, forecastCmd, synthCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers preset, config file, and the --tau0 flag, most
// specific last. A config file overlays the preset field by field
// rather than replacing it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cmd.Flags().Changed("tau0") {
		cfg.Tau0 = tau0
	}
	return cfg, nil
}

func fitFromArgs(cmd *cobra.Command, path string) (*lim.Model, *lim.Series, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	series, err := storage.LoadDataset(path)
	if err != nil {
		return nil, nil, err
	}
	model, err := lim.Fit(series, cfg.Tau0, cfg.Tolerances(), cfg.TauMultiples)
	if err != nil {
		return nil, nil, err
	}
	return model, series, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	start := time.Now()
	model, _, err := fitFromArgs(cmd, args[0])
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveRun(runName, model)
	if err != nil {
		return err
	}

	fmt.Printf("fitted %d variables at tau0=%d in %v\n", len(model.IDs), model.Tau0, elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	printModes(model)
	fmt.Println()
	printReportSummary(model.Report)
	return nil
}

func runModes(cmd *cobra.Command, args []string) error {
	model, _, err := fitFromArgs(cmd, args[0])
	if err != nil {
		return err
	}
	printModes(model)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	model, _, err := fitFromArgs(cmd, args[0])
	if err != nil {
		return err
	}
	rep := model.Report

	fmt.Printf("validity report (tau0=%d)\n\n", rep.Tau0)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LAG\tOP_DIST\tEIG_DIST\tEXCEEDS\tERROR")
	for _, c := range rep.TauChecks {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%v\t%s\n", c.Lag, c.OperatorDistance, c.EigenvalueDistance, c.Exceeds, c.Err)
	}
	w.Flush()

	fmt.Printf("\ntau consistent: %v\n", rep.TauConsistent)
	fmt.Printf("nyquist modes:  %v (flagged: %v)\n", rep.NyquistModes, rep.NyquistFlag)
	fmt.Printf("q eigenvalues:  min %.6g, %d negative beyond tolerance\n", rep.MinQEigenvalue, len(rep.NegativeQ))
	for _, warn := range rep.Warnings {
		fmt.Printf("warning [%s]: %s (%.3g)\n", warn.Kind, warn.Detail, warn.Value)
	}
	fmt.Printf("\nverdict: %s\n", verdict(rep.Passed))
	return nil
}

func runForecast(cmd *cobra.Command, args []string) error {
	model, series, err := fitFromArgs(cmd, args[0])
	if err != nil {
		return err
	}

	col := initCol
	if col < 0 {
		col = series.Steps() - 1
	}
	if col >= series.Steps() {
		return fmt.Errorf("init column %d out of range (%d timesteps)", col, series.Steps())
	}
	x0 := make([]float64, series.Vars())
	for i := range x0 {
		x0[i] = series.Data.At(i, col)
	}

	fc := model.Forecaster()
	mean, err := fc.Mean(x0, lead)
	if err != nil {
		return err
	}
	errCov, err := fc.ErrorCovariance(lead)
	if err != nil {
		return err
	}

	fmt.Printf("forecast at lead %.1f from column %d\n\n", lead, col)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tANALYSIS\tFORECAST\tERR_STD")
	for i, id := range model.IDs {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\n", id, x0[i], mean[i], math.Sqrt(math.Max(0, errCov.At(i, i))))
	}
	return w.Flush()
}

func runSynth(cmd *cobra.Command, args []string) error {
	var a *mat.Dense
	switch {
	case synthPer > 0:
		if synthVars != 2 {
			return fmt.Errorf("oscillatory process is 2-variable, got --vars %d", synthVars)
		}
		a = synthetic.DampedOscillator(synthDecay, synthPer)
	default:
		a = synthetic.Decay(synthVars, synthDecay)
	}

	proc, err := synthetic.New(a, synthetic.IsotropicNoise(synthVars, synthNoise), synthSeed)
	if err != nil {
		return err
	}
	data := proc.Run(synthSteps, 200)

	ids := make([]string, synthVars)
	for i := range ids {
		ids[i] = fmt.Sprintf("var%d", i)
	}
	series, err := lim.NewSeries(ids, data)
	if err != nil {
		return err
	}
	if err := storage.SaveDataset(synthOut, series); err != nil {
		return err
	}
	fmt.Printf("wrote %dx%d dataset to %s (seed %d)\n", synthVars, synthSteps, synthOut, synthSeed)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
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
	fmt.Fprintln(w, "ID\tTIME\tTAU0\tVARS\tVERDICT")
	for _, run := range runs {
		verdictStr := "-"
		if run.Report != nil {
			verdictStr = verdict(run.Report.Passed)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Tau0,
			len(run.IDs),
			verdictStr,
		)
	}
	return w.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func printModes(model *lim.Model) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tRE(EIG)\tIM(EIG)\tDECAY_T\tPERIOD")
	for _, m := range model.Modes {
		period := "-"
		if m.Oscillatory() {
			period = fmt.Sprintf("%.2f", m.Period)
		}
		fmt.Fprintf(w, "%d\t%.5f\t%.5f\t%.2f\t%s\n",
			m.Index, real(m.Eigenvalue), imag(m.Eigenvalue), m.DecayTime, period)
	}
	w.Flush()
}

func printReportSummary(rep *lim.Report) {
	fmt.Printf("tau consistent: %v, nyquist: %v, q positive: %v\n",
		rep.TauConsistent, rep.NyquistFlag, rep.QPositive)
	fmt.Printf("verdict: %s (advisory)\n", verdict(rep.Passed))
}

func verdict(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
