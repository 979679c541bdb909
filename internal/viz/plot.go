package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// Log10Series maps values to log10, dropping entries that are not positive
// and finite. MRMS histories span many decades and read best on a log scale.
func Log10Series(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			out = append(out, math.Log10(v))
		}
	}
	return out
}

// Finite drops NaN and infinite entries.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Plot draws series with asciigraph. It returns an empty string when fewer
// than two points remain, which asciigraph cannot draw meaningfully.
func Plot(series []float64, height, width int, caption string) string {
	if len(series) < 2 {
		return ""
	}
	opts := []asciigraph.Option{asciigraph.Height(height), asciigraph.Caption(caption)}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(series, opts...)
}
