package metrics

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

func checkPair(op string, a, b []float64) error {
	if len(a) == 0 || len(b) == 0 {
		return dynamo.Domainf(op, "empty input")
	}
	if len(a) != len(b) {
		return dynamo.Domainf(op, "length mismatch %d != %d", len(a), len(b))
	}
	return nil
}

// TwoNorm returns the Euclidean distance between a and b.
func TwoNorm(a, b []float64) (float64, error) {
	if err := checkPair("twonorm", a, b); err != nil {
		return 0, err
	}
	return dynamo.State(a).Sub(b).Norm(), nil
}

// MRMS returns the mean-root-mean-square relative distance between a and b,
// using a as the reference for scaling.
func MRMS(a, b []float64) (float64, error) {
	if err := checkPair("mrms", a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range a {
		d := (a[i] - b[i]) / math.Max(1, math.Abs(a[i]))
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a))), nil
}

// TwoNormTrace applies TwoNorm sample by sample to two trajectories.
func TwoNormTrace(t1, t2 [][]float64) ([]float64, error) {
	return trace("twonorm trace", t1, t2, TwoNorm)
}

// MRMSTrace applies MRMS sample by sample to two trajectories.
func MRMSTrace(t1, t2 [][]float64) ([]float64, error) {
	return trace("mrms trace", t1, t2, MRMS)
}

func trace(op string, t1, t2 [][]float64, fn func(a, b []float64) (float64, error)) ([]float64, error) {
	if len(t1) == 0 || len(t2) == 0 {
		return nil, dynamo.Domainf(op, "empty trace")
	}
	if len(t1) != len(t2) {
		return nil, dynamo.Domainf(op, "trace length mismatch %d != %d", len(t1), len(t2))
	}
	out := make([]float64, len(t1))
	for i := range t1 {
		d, err := fn(t1[i], t2[i])
		if err != nil {
			return nil, dynamo.Domainf(op, "sample %d: %v", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// Max returns the largest value of a distance series.
func Max(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, dynamo.Domainf("max", "empty input")
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m, nil
}

// Mean returns the arithmetic mean of a distance series.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, dynamo.Domainf("mean", "empty input")
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Final returns the last value of a distance series.
func Final(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, dynamo.Domainf("final", "empty input")
	}
	return values[len(values)-1], nil
}

// Reducer collapses a distance series into one number.
type Reducer func(values []float64) (float64, error)

// ReducerNames lists the names ReducerByName accepts.
var ReducerNames = []string{"max", "mean", "final"}

func ReducerByName(name string) (Reducer, error) {
	switch name {
	case "max":
		return Max, nil
	case "mean":
		return Mean, nil
	case "final":
		return Final, nil
	}
	return nil, dynamo.Domainf("reducer", "unknown reducer %q (have %v)", name, ReducerNames)
}
