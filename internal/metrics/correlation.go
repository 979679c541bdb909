package metrics

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// MinCorrelationPoints is the fewest samples a correlation is defined for.
const MinCorrelationPoints = 3

// Pearson returns the correlation of values[i] against its index i, a measure
// of linear trend strength. It returns NaN for fewer than three points or a
// constant series; callers that need a defined result must check math.IsNaN.
func Pearson(values []float64) float64 {
	n := len(values)
	if n < MinCorrelationPoints {
		return math.NaN()
	}
	var sumX, sumX2, sumY, sumY2, sumXY float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumX2 += x * x
		sumY += y
		sumY2 += y * y
		sumXY += x * y
	}
	return pmcc(float64(n), sumX, sumX2, sumY, sumY2, sumXY)
}

// PearsonXY returns the correlation between paired samples xs and ys. A
// constant series yields NaN without an error.
func PearsonXY(xs, ys []float64) (float64, error) {
	if err := checkPair("pearson", xs, ys); err != nil {
		return math.NaN(), err
	}
	if len(xs) < MinCorrelationPoints {
		return math.NaN(), dynamo.Domainf("pearson", "need at least %d points, got %d", MinCorrelationPoints, len(xs))
	}
	var sumX, sumX2, sumY, sumY2, sumXY float64
	for i := range xs {
		x, y := xs[i], ys[i]
		sumX += x
		sumX2 += x * x
		sumY += y
		sumY2 += y * y
		sumXY += x * y
	}
	return pmcc(float64(len(xs)), sumX, sumX2, sumY, sumY2, sumXY), nil
}

func pmcc(n, sumX, sumX2, sumY, sumY2, sumXY float64) float64 {
	denom := (n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY)
	if denom <= 0 {
		return math.NaN()
	}
	return (n*sumXY - sumX*sumY) / math.Sqrt(denom)
}
