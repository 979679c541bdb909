package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pacesim/internal/config"
	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/experiment"
	"github.com/san-kum/pacesim/internal/metrics"
	"github.com/san-kum/pacesim/internal/pacing"
	"github.com/san-kum/pacesim/internal/storage"
	"github.com/san-kum/pacesim/internal/viz"
)

func runSteadyState(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, modelArg(args))
	if err != nil {
		return err
	}
	cfg := exp.Config()

	fmt.Printf("pacing %s at %g (max %d paces, tolerance %g)...\n", cfg.Model, cfg.Protocol.Period, cfg.Paces, cfg.Tolerance)
	start := time.Now()
	res, err := exp.Driver().RunSimulation(cmd.Context(), cfg.Paces, cfg.Tolerance)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := saveRun(cmd.Context(), exp, exp.SteadyRun(res))
	if err != nil {
		return err
	}
	if err := writeFinalState(exp, res.Final); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("paces: %d  final mrms: %.3e  %s\n", res.Paces, res.FinalMRMS, viz.ConvergedBadge(res.Converged))
	printState(exp.Cell().StateNames(), res.Final)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, modelArg(args))
	if err != nil {
		return err
	}
	cfg := exp.Config()

	fmt.Printf("analyzing %s: window %d, every %d paces...\n", cfg.Model, cfg.BufferSize, cfg.Cadence)
	res, runErr := exp.Driver().Analyze(cmd.Context(), exp.AnalysisConfig(strict))
	if res == nil {
		return runErr
	}
	var assertion *dynamo.NumericalAssertionError
	if runErr != nil && !errors.As(runErr, &assertion) {
		return runErr
	}

	runID, err := saveRun(cmd.Context(), exp, exp.AnalysisRun(res))
	if err != nil {
		return err
	}
	if err := writeFinalState(exp, res.Final); err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	mrms := res.MRMS()
	final := math.NaN()
	if len(mrms) > 0 {
		final = mrms[len(mrms)-1]
	}
	fmt.Printf("paces: %d  final mrms: %.3e  %s\n", res.Paces, final, viz.ConvergedBadge(res.Converged))

	last := res.LastRow()
	if last == nil {
		fmt.Printf("window never filled; run at least %d paces to classify\n", cfg.BufferSize)
		return runErr
	}

	fmt.Printf("\nclassifier at pace %d:\n", last.Pace)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tPMCC\tRATE\tPOINTS\tSTATUS")
	for _, v := range last.Verdicts {
		fmt.Fprintf(w, "%s\t%.4f\t%.3e\t%d\t%s\n", v.Name, v.PMCC, v.Rate, v.Points, viz.StatusBadge(v.Status))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("mean pmcc: %.4f\n", last.Summary.MeanPMCC)
	if last.Summary.Slowest >= 0 {
		v := last.Verdicts[last.Summary.Slowest]
		fmt.Printf("slowest: %s (rate %.3e per pace)\n", v.Name, v.Rate)
	}
	return runErr
}

func runCompare(cmd *cobra.Command, args []string) error {
	reduce, err := metrics.ReducerByName(reduceBy)
	if err != nil {
		return err
	}
	exp, err := setup(cmd, args[0], pacing.WithReducer(reduce))
	if err != nil {
		return err
	}
	names := exp.Cell().StateNames()

	a, err := storage.LoadState(args[1], names)
	if err != nil {
		return err
	}
	b, err := storage.LoadState(args[2], names)
	if err != nil {
		return err
	}

	norm, err := exp.Driver().Pace2Norm(a, b)
	if err != nil {
		return err
	}
	mrms, err := exp.Driver().PaceMRMS(a, b)
	if err != nil {
		return err
	}

	fmt.Printf("comparing one pace of %s from %s and %s\n\n", exp.Config().Model, args[1], args[2])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "METRIC\t%s OVER PACE\n", strings.ToUpper(reduceBy))
	fmt.Fprintf(w, "two-norm\t%.6e\n", norm)
	fmt.Fprintf(w, "mrms\t%.6e\n", mrms)
	return w.Flush()
}

func runAPD(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, modelArg(args))
	if err != nil {
		return err
	}
	cfg := exp.Config()
	d := exp.Driver()

	if steadyFirst {
		res, err := d.RunSimulation(cmd.Context(), cfg.Paces, cfg.Tolerance)
		if err != nil {
			return err
		}
		fmt.Printf("paced %d times  %s\n", res.Paces, viz.ConvergedBadge(res.Converged))
	}

	if seriesLen <= 0 {
		props, err := d.CalculateAPD(cfg.APDPercent)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "APD%g\t%.3f\n", props.Percent, props.APD)
		fmt.Fprintf(w, "onset\t%.3f\n", props.Onset)
		fmt.Fprintf(w, "repolarization\t%.3f\n", props.Repolarization)
		fmt.Fprintf(w, "max dV/dt\t%.4g\n", props.MaxUpstrokeVelocity)
		fmt.Fprintf(w, "peak\t%.4g\n", props.Peak)
		fmt.Fprintf(w, "resting\t%.4g\n", props.Resting)
		return w.Flush()
	}

	series, err := d.APDSeries(cmd.Context(), seriesLen, cfg.APDPercent)
	if err != nil {
		return err
	}
	runID, err := saveRun(cmd.Context(), exp, exp.APDRun(series))
	if err != nil {
		return err
	}

	apds := series.APDs()
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("APD%g over %d paces: %s\n", cfg.APDPercent, len(apds), viz.SparklineChart(apds, 60))
	if n := len(apds); n > 0 {
		fmt.Printf("last: %.3f\n", apds[n-1])
	}
	return nil
}

func runRestitution(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, modelArg(args))
	if err != nil {
		return err
	}
	cfg := exp.Config()

	rcfg := pacing.RestitutionConfig{
		CycleLengths:       cycleLengths,
		Paces:              cfg.Paces,
		Tolerance:          cfg.Tolerance,
		Percent:            cfg.APDPercent,
		AlternansThreshold: alternans,
	}
	points, err := exp.Driver().Restitution(cmd.Context(), rcfg)
	if err != nil {
		return err
	}
	runID, err := saveRun(cmd.Context(), exp, exp.RestitutionRun(rcfg, points))
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n\n", runID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CL\tAPD%g\tAPD%g'\tDI\tALTERNANS\tPACES\tSTEADY\n", cfg.APDPercent, cfg.APDPercent)
	for _, pt := range points {
		fmt.Fprintf(w, "%g\t%.2f\t%.2f\t%.2f\t%v\t%d\t%v\n",
			pt.CycleLength, pt.APD[0], pt.APD[1], pt.DI, pt.Alternans, pt.Paces, pt.Converged)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	models := args
	if len(models) == 0 {
		models = config.Models
	}

	exps := make([]*experiment.Experiment, len(models))
	jobs := make([]pacing.Job, len(models))
	for i, model := range models {
		exp, err := setup(cmd, model, pacing.WithLogger(slog.Default().With("job", i)))
		if err != nil {
			return fmt.Errorf("%s: %w", model, err)
		}
		exps[i] = exp
		jobs[i] = exp.Job()
	}

	fmt.Printf("pacing %d models...\n", len(jobs))
	start := time.Now()
	results := pacing.RunEnsemble(cmd.Context(), jobs, pacing.EnsembleOptions{Workers: workers, FailFast: failFast})
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPACES\tFINAL MRMS\tSTATUS\tRUN ID")
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
			fmt.Fprintf(w, "%s\t-\t-\terror\t-\n", r.Name)
			continue
		}
		runID, err := saveRun(cmd.Context(), exps[i], exps[i].SteadyRun(r.Steady))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%s\t%s\n", r.Name, r.Steady.Paces, r.Steady.FinalMRMS, viz.ConvergedBadge(r.Steady.Converged), runID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func writeFinalState(exp *experiment.Experiment, s dynamo.State) error {
	if saveState == "" {
		return nil
	}
	f, err := os.Create(saveState)
	if err != nil {
		return err
	}
	if err := storage.WriteNamedState(f, exp.Cell().StateNames(), s); err != nil {
		f.Close()
		return err
	}
	fmt.Printf("final state written to %s\n", saveState)
	return f.Close()
}

func printState(names []string, s dynamo.State) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, v := range s {
		fmt.Fprintf(w, "  %s\t% .10g\n", names[i], v)
	}
	w.Flush()
}
