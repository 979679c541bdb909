package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/pacesim/internal/logging"
	"github.com/san-kum/pacesim/internal/pacing"
	"github.com/san-kum/pacesim/internal/storage"
	"github.com/san-kum/pacesim/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	if liveLoop != "analysis" && liveLoop != "steady" {
		return fmt.Errorf("unknown loop: %s (have analysis, steady)", liveLoop)
	}

	events := make(chan pacing.PaceEvent, 64)
	// log lines would tear the terminal UI
	exp, err := setup(cmd, modelArg(args),
		pacing.WithLogger(logging.Discard()),
		pacing.WithObserver(pacing.ChannelObserver(events)))
	if err != nil {
		return err
	}
	cfg := exp.Config()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(viz.NewMonitor(cfg.Model, exp.Cell().StateNames(), cfg.Tolerance, events))

	done := make(chan *storage.Run, 1)
	go func() {
		var run *storage.Run
		var err error
		var summary string
		switch liveLoop {
		case "steady":
			var res *pacing.SteadyState
			res, err = exp.Driver().RunSimulation(ctx, cfg.Paces, cfg.Tolerance)
			if err == nil {
				run = exp.SteadyRun(res)
				summary = fmt.Sprintf("%d paces, final mrms %.3e, %s", res.Paces, res.FinalMRMS, viz.ConvergedBadge(res.Converged))
			}
		default:
			var res *pacing.Analysis
			res, err = exp.Driver().Analyze(ctx, exp.AnalysisConfig(false))
			if err == nil {
				run = exp.AnalysisRun(res)
				summary = fmt.Sprintf("%d paces, %s", res.Paces, viz.ConvergedBadge(res.Converged))
			}
		}
		done <- run
		p.Send(viz.DoneMsg{Err: err, Summary: summary})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	cancel()

	run := <-done
	if run == nil {
		return nil
	}
	runID, err := saveRun(cmd.Context(), exp, run)
	if err != nil {
		return err
	}
	slog.Info("run saved", "id", runID)
	fmt.Printf("run id: %s\n", runID)
	return nil
}
