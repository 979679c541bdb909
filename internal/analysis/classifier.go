package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/metrics"
	"github.com/san-kum/pacesim/internal/tracebuf"
)

// PMCCBound is the largest correlation magnitude accepted as valid. Anything
// beyond it is rounding error grown into corrupted data.
const PMCCBound = 1.001

// Status classifies a Verdict.
type Status int

const (
	StatusOK Status = iota
	StatusUndefined
	StatusUnstable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUndefined:
		return "undefined"
	case StatusUnstable:
		return "unstable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Verdict describes how one state variable approaches its latest value.
type Verdict struct {
	Index     int
	Name      string
	PMCC      float64 // correlation of log-deviation with pace index
	Rate      float64 // fitted decay rate per pace, NaN when not fitted
	Intercept float64
	Points    int // usable log-difference points
	Status    Status
}

// Correlation computes the PMCC of a Log-Difference Series.
type Correlation func(xs, ys []float64) (float64, error)

// ClassifyTrace computes the verdict for a single Column Trace.
func ClassifyTrace(trace []float64) Verdict {
	return classifyTrace(trace, metrics.PearsonXY)
}

func classifyTrace(trace []float64, corr Correlation) Verdict {
	v := Verdict{PMCC: math.NaN(), Rate: math.NaN(), Intercept: math.NaN(), Status: StatusUndefined}

	xs, logs := LogDifferences(trace)
	v.Points = len(xs)
	if fit, err := fitLog(xs, logs, 1); err == nil {
		v.Rate = fit.Rate
		v.Intercept = fit.Intercept
	}

	r, err := corr(xs, logs)
	if err != nil || math.IsNaN(r) {
		return v
	}
	v.PMCC = r
	v.Status = pmccStatus(r)
	return v
}

func pmccStatus(r float64) Status {
	if math.Abs(r) > PMCCBound {
		return StatusUnstable
	}
	return StatusOK
}

// Classifier computes per-variable convergence verdicts over a full Trace
// Buffer. Only the first len(Names) columns are classified; trailing quality
// columns are ignored.
type Classifier struct {
	Names []string
	// Correlate defaults to metrics.PearsonXY.
	Correlate Correlation
}

func NewClassifier(names []string) *Classifier {
	return &Classifier{Names: names, Correlate: metrics.PearsonXY}
}

// Classify returns one Verdict per named variable. Verdicts with |PMCC| above
// PMCCBound are returned with StatusUnstable and also reported, joined, as
// *dynamo.NumericalAssertionError.
func (c *Classifier) Classify(buf *tracebuf.Buffer) ([]Verdict, error) {
	if !buf.Full() {
		return nil, dynamo.Domainf("classify", "buffer holds %d of %d paces", buf.Len(), buf.Cap())
	}
	if len(c.Names) > buf.Width() {
		return nil, &dynamo.IndexError{Op: "classify", Index: len(c.Names) - 1, Len: buf.Width()}
	}
	corr := c.Correlate
	if corr == nil {
		corr = metrics.PearsonXY
	}

	verdicts := make([]Verdict, len(c.Names))
	var errs []error
	for i, name := range c.Names {
		col, err := buf.Column(i)
		if err != nil {
			return nil, err
		}
		v := classifyTrace(col, corr)
		v.Index = i
		v.Name = name
		verdicts[i] = v
		if v.Status == StatusUnstable {
			errs = append(errs, &dynamo.NumericalAssertionError{
				Quantity: "pmcc " + name,
				Index:    i,
				Value:    v.PMCC,
				Bound:    PMCCBound,
			})
		}
	}
	return verdicts, errors.Join(errs...)
}

// Summary aggregates a set of verdicts.
type Summary struct {
	OK        int
	Undefined int
	Unstable  int
	MeanPMCC  float64 // over StatusOK verdicts, NaN if none
	Slowest   int     // index of the OK verdict with the largest Rate, -1 if none
}

func Summarize(verdicts []Verdict) Summary {
	s := Summary{MeanPMCC: math.NaN(), Slowest: -1}
	sum := 0.0
	slowest := math.Inf(-1)
	for _, v := range verdicts {
		switch v.Status {
		case StatusOK:
			s.OK++
			sum += v.PMCC
			if !math.IsNaN(v.Rate) && v.Rate > slowest {
				slowest = v.Rate
				s.Slowest = v.Index
			}
		case StatusUndefined:
			s.Undefined++
		case StatusUnstable:
			s.Unstable++
		}
	}
	if s.OK > 0 {
		s.MeanPMCC = sum / float64(s.OK)
	}
	return s
}
