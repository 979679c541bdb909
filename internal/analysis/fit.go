package analysis

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// Fit is the result of fitting y = A*exp(k*x).
type Fit struct {
	Rate      float64 // k
	Intercept float64 // ln|A|
	Sign      float64 // sign of A, +1 or -1
	RSquared  float64 // goodness of fit in log space
	Points    int
}

// Amplitude returns A.
func (f Fit) Amplitude() float64 {
	return f.Sign * math.Exp(f.Intercept)
}

// Eval returns the fitted value at x.
func (f Fit) Eval(x float64) float64 {
	return f.Amplitude() * math.Exp(f.Rate*x)
}

// Converging reports whether the fitted exponential decays.
func (f Fit) Converging() bool {
	return f.Rate < 0
}

// FitExponential fits y = A*exp(k*x) by ordinary least squares of ln|y|
// against x. All ys must be nonzero and share one sign.
func FitExponential(xs, ys []float64) (Fit, error) {
	const op = "fit exponential"
	if len(xs) != len(ys) {
		return Fit{}, dynamo.Domainf(op, "length mismatch %d != %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return Fit{}, dynamo.Domainf(op, "need at least 2 points, got %d", len(xs))
	}

	sign := 1.0
	if ys[0] < 0 {
		sign = -1.0
	}

	logs := make([]float64, len(ys))
	for i, y := range ys {
		if y == 0 {
			return Fit{}, dynamo.Domainf(op, "zero value at %d", i)
		}
		if (y < 0) != (sign < 0) {
			return Fit{}, dynamo.Domainf(op, "mixed signs at %d", i)
		}
		logs[i] = math.Log(math.Abs(y))
	}
	return fitLog(xs, logs, sign)
}

// fitLog fits ln|y| = intercept + k*x by ordinary least squares.
func fitLog(xs, logs []float64, sign float64) (Fit, error) {
	const op = "fit exponential"
	if len(xs) < 2 {
		return Fit{}, dynamo.Domainf(op, "need at least 2 points, got %d", len(xs))
	}

	n := float64(len(xs))
	var sumX, sumX2, sumY, sumXY float64
	for i, ly := range logs {
		x := xs[i]
		sumX += x
		sumX2 += x * x
		sumY += ly
		sumXY += x * ly
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return Fit{}, dynamo.Domainf(op, "all x values are equal")
	}

	k := (n*sumXY - sumX*sumY) / denom
	intercept := sumY/n - k*sumX/n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i, ly := range logs {
		r := ly - (intercept + k*xs[i])
		ssRes += r * r
		d := ly - meanY
		ssTot += d * d
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Fit{
		Rate:      k,
		Intercept: intercept,
		Sign:      sign,
		RSquared:  r2,
		Points:    len(xs),
	}, nil
}
