package pacing

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/pacesim/internal/analysis"
	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/metrics"
	"github.com/san-kum/pacesim/internal/tracebuf"
)

const DefaultCadence = 20

// AnalysisConfig controls the online classifier loop.
type AnalysisConfig struct {
	Paces      int
	BufferSize int     // sliding window length, default tracebuf.DefaultCapacity
	Cadence    int     // classify every Cadence paces once the window is full, default 20
	Tolerance  float64 // stop once MRMS falls below this; zero disables
	Strict     bool    // abort on a numerical assertion

	// Correlate replaces the classifier's Pearson correlation when set.
	Correlate analysis.Correlation
}

func (c *AnalysisConfig) withDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = tracebuf.DefaultCapacity
	}
	if c.Cadence == 0 {
		c.Cadence = DefaultCadence
	}
}

// ClassifierRow holds the verdicts computed after one pace.
type ClassifierRow struct {
	Pace     int
	Verdicts []analysis.Verdict
	Summary  analysis.Summary
	Err      error // joined *dynamo.NumericalAssertionError, if any
}

type Analysis struct {
	Converged bool
	Paces     int
	Records   []tracebuf.Record // every pace: state followed by its MRMS
	Rows      []ClassifierRow
	Final     dynamo.State
}

// MRMS returns the per-pace MRMS history.
func (a *Analysis) MRMS() []float64 {
	out := make([]float64, len(a.Records))
	for i, r := range a.Records {
		out[i] = r[len(r)-1]
	}
	return out
}

// LastRow returns the most recent classifier row, or nil.
func (a *Analysis) LastRow() *ClassifierRow {
	if len(a.Rows) == 0 {
		return nil
	}
	return &a.Rows[len(a.Rows)-1]
}

// Analyze paces the model while keeping a sliding window of pace records,
// classifying how each state variable converges every Cadence paces once
// the window is full.
func (d *Driver) Analyze(ctx context.Context, cfg AnalysisConfig) (*Analysis, error) {
	cfg.withDefaults()
	if cfg.Paces < 1 {
		return nil, dynamo.Domainf("analyze", "pace count must be positive, got %d", cfg.Paces)
	}
	if cfg.BufferSize < 3 {
		return nil, dynamo.Domainf("analyze", "buffer size must be at least 3, got %d", cfg.BufferSize)
	}
	if cfg.Cadence < 1 {
		return nil, dynamo.Domainf("analyze", "cadence must be positive, got %d", cfg.Cadence)
	}

	buf := tracebuf.New(cfg.BufferSize)
	classifier := analysis.NewClassifier(d.model.StateNames())
	if cfg.Correlate != nil {
		classifier.Correlate = cfg.Correlate
	}
	res := &Analysis{Records: make([]tracebuf.Record, 0, cfg.Paces)}
	prev := d.model.State()
	res.Final = prev

	for pace := 1; pace <= cfg.Paces; pace++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if err := d.advance(pace); err != nil {
			return res, err
		}
		cur := d.model.State()
		mrms, err := metrics.MRMS(cur, prev)
		if err != nil {
			return res, fmt.Errorf("pace %d: %w", pace, err)
		}

		rec := tracebuf.NewRecord(cur, mrms)
		if err := buf.Push(rec); err != nil {
			return res, fmt.Errorf("pace %d: %w", pace, err)
		}
		res.Records = append(res.Records, rec)
		res.Paces = pace
		res.Final = cur

		ev := newEvent(LoopAnalysis, pace, cfg.Paces, cur)
		ev.MRMS = mrms

		if buf.Full() && pace%cfg.Cadence == 0 {
			verdicts, cerr := classifier.Classify(buf)
			var assertion *dynamo.NumericalAssertionError
			if cerr != nil && !errors.As(cerr, &assertion) {
				return res, fmt.Errorf("pace %d: %w", pace, cerr)
			}
			row := ClassifierRow{Pace: pace, Verdicts: verdicts, Summary: analysis.Summarize(verdicts), Err: cerr}
			res.Rows = append(res.Rows, row)
			ev.Summary = &row.Summary

			d.log.Debug("classified window", "pace", pace, "ok", row.Summary.OK,
				"undefined", row.Summary.Undefined, "mean_pmcc", row.Summary.MeanPMCC)
			if cerr != nil {
				d.log.Warn("numerical assertion", "pace", pace, "err", cerr)
				if cfg.Strict {
					d.notify(ev)
					return res, fmt.Errorf("pace %d: %w", pace, cerr)
				}
			}
		}
		d.notify(ev)

		if cfg.Tolerance > 0 && mrms < cfg.Tolerance {
			res.Converged = true
			d.log.Info("steady state reached", "paces", pace, "mrms", mrms)
			return res, nil
		}
		prev = cur
	}
	return res, nil
}
