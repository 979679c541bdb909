package experiment

import (
	"math"

	"github.com/san-kum/pacesim/internal/pacing"
	"github.com/san-kum/pacesim/internal/storage"
	"github.com/san-kum/pacesim/internal/tracebuf"
)

const (
	KindRun         = "run"
	KindAnalyze     = "analyze"
	KindAPD         = "apd"
	KindRestitution = "restitution"
)

// RestitutionColumns name the per-row values of a stored restitution sweep.
var RestitutionColumns = []string{"cycle_length", "apd_1", "apd_2", "di", "alternans"}

// paceRows splits records carrying a trailing MRMS into pace rows.
func paceRows(records []tracebuf.Record) []storage.PaceRow {
	rows := make([]storage.PaceRow, len(records))
	for i, r := range records {
		n := len(r) - 1
		rows[i] = storage.PaceRow{
			Pace:  i + 1,
			MRMS:  r[n],
			APD:   math.NaN(),
			State: append([]float64(nil), r[:n]...),
		}
	}
	return rows
}

func (e *Experiment) SteadyRun(res *pacing.SteadyState) *storage.Run {
	meta := e.metadata(KindRun)
	meta.Paces = res.Paces
	meta.Converged = res.Converged
	meta.FinalMRMS = res.FinalMRMS
	return &storage.Run{Meta: meta, Paces: paceRows(res.Records), Final: res.Final}
}

func (e *Experiment) AnalysisRun(a *pacing.Analysis) *storage.Run {
	meta := e.metadata(KindAnalyze)
	meta.Paces = a.Paces
	meta.Converged = a.Converged
	if h := a.MRMS(); len(h) > 0 {
		meta.FinalMRMS = h[len(h)-1]
	}

	run := &storage.Run{Meta: meta, Paces: paceRows(a.Records), Final: a.Final}
	for _, row := range a.Rows {
		for _, v := range row.Verdicts {
			run.PMCC = append(run.PMCC, storage.PMCCRow{
				Pace:     row.Pace,
				Variable: v.Name,
				PMCC:     v.PMCC,
				Rate:     v.Rate,
				Status:   v.Status.String(),
			})
		}
	}

	if last := a.LastRow(); last != nil {
		meta.Metrics["classified_pace"] = float64(last.Pace)
		meta.Metrics["mean_pmcc"] = last.Summary.MeanPMCC
		meta.Metrics["ok"] = float64(last.Summary.OK)
		meta.Metrics["undefined"] = float64(last.Summary.Undefined)
		meta.Metrics["unstable"] = float64(last.Summary.Unstable)
		if last.Summary.Slowest >= 0 {
			meta.Metrics["slowest_rate"] = last.Verdicts[last.Summary.Slowest].Rate
		}
	}
	return run
}

func (e *Experiment) APDRun(s *pacing.APDSeries) *storage.Run {
	meta := e.metadata(KindAPD)
	meta.Paces = len(s.Samples)
	meta.Metrics["percent"] = s.Percent

	run := &storage.Run{Meta: meta, Paces: make([]storage.PaceRow, len(s.Samples))}
	for i, smp := range s.Samples {
		run.Paces[i] = storage.PaceRow{Pace: smp.Pace, MRMS: math.NaN(), APD: smp.APD, State: smp.State}
	}
	if n := len(s.Samples); n > 0 {
		run.Final = s.Samples[n-1].State
		meta.Metrics["final_apd"] = s.Samples[n-1].APD
	}
	return run
}

// RestitutionRun stores one row per cycle length. The row values are named
// by RestitutionColumns rather than by model variables, and no final state
// is kept.
func (e *Experiment) RestitutionRun(cfg pacing.RestitutionConfig, points []pacing.RestitutionPoint) *storage.Run {
	meta := e.metadata(KindRestitution)
	meta.StateNames = RestitutionColumns
	meta.Tolerance = cfg.Tolerance
	meta.Metrics["percent"] = cfg.Percent
	meta.Converged = len(points) > 0

	run := &storage.Run{Meta: meta, Paces: make([]storage.PaceRow, len(points))}
	for i, pt := range points {
		alt := 0.0
		if pt.Alternans {
			alt = 1
		}
		meta.Paces += pt.Paces
		meta.Converged = meta.Converged && pt.Converged
		run.Paces[i] = storage.PaceRow{
			Pace:  i + 1,
			MRMS:  math.NaN(),
			APD:   pt.APD[1],
			State: []float64{pt.CycleLength, pt.APD[0], pt.APD[1], pt.DI, alt},
		}
	}
	run.Meta = meta
	return run
}
