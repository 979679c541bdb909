package analysis

import "math"

// Residuals returns, for every entry but the last, its index and absolute
// deviation from the trace's final value. Entries with zero deviation are
// skipped since their logarithm is undefined.
func Residuals(trace []float64) (xs, ys []float64) {
	if len(trace) < 2 {
		return nil, nil
	}
	final := trace[len(trace)-1]
	xs = make([]float64, 0, len(trace)-1)
	ys = make([]float64, 0, len(trace)-1)
	for i, v := range trace[:len(trace)-1] {
		d := math.Abs(v - final)
		if d == 0 {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, d)
	}
	return xs, ys
}

// LogDifferences returns the Log-Difference Series of a trace: the pace index
// and natural log of each nonzero residual.
func LogDifferences(trace []float64) (xs, ys []float64) {
	xs, ys = Residuals(trace)
	for i, d := range ys {
		ys[i] = math.Log(d)
	}
	return xs, ys
}
