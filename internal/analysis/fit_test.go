package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pacesim/internal/dynamo"
)

func TestFitExponential_RecoversRate(t *testing.T) {
	xs := make([]float64, 50)
	ys := make([]float64, 50)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = math.Exp(-0.05 * xs[i])
	}

	fit, err := FitExponential(xs, ys)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(fit.Rate+0.05) > 1e-6 {
		t.Errorf("expected rate -0.05, got %v", fit.Rate)
	}
	if math.Abs(fit.Intercept) > 1e-6 {
		t.Errorf("expected intercept 0, got %v", fit.Intercept)
	}
	if math.Abs(fit.RSquared-1) > 1e-9 {
		t.Errorf("expected R^2 1, got %v", fit.RSquared)
	}
	if !fit.Converging() {
		t.Error("expected decaying fit")
	}
}

func TestFitExponential_NegativeAmplitude(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = -3 * math.Exp(0.2*x)
	}

	fit, err := FitExponential(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fit.Rate-0.2) > 1e-9 {
		t.Errorf("rate = %v, want 0.2", fit.Rate)
	}
	if math.Abs(fit.Amplitude()+3) > 1e-9 {
		t.Errorf("amplitude = %v, want -3", fit.Amplitude())
	}
	if math.Abs(fit.Eval(2)-ys[2]) > 1e-9 {
		t.Errorf("Eval(2) = %v, want %v", fit.Eval(2), ys[2])
	}
	if fit.Converging() {
		t.Error("growing fit reported as converging")
	}
}

func TestFitExponential_Errors(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"empty", nil, nil},
		{"one point", []float64{0}, []float64{1}},
		{"mismatch", []float64{0, 1}, []float64{1}},
		{"zero y", []float64{0, 1, 2}, []float64{1, 0, 2}},
		{"mixed sign", []float64{0, 1, 2}, []float64{1, -1, 2}},
		{"degenerate x", []float64{1, 1, 1}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FitExponential(tt.xs, tt.ys); !errors.Is(err, dynamo.ErrDomain) {
				t.Errorf("error = %v, want ErrDomain", err)
			}
		})
	}
}

func TestResiduals(t *testing.T) {
	trace := []float64{5, 3, 2, 3, 2}

	xs, ys := Residuals(trace)
	wantX := []float64{0, 1, 3}
	wantY := []float64{3, 1, 1}
	if len(xs) != len(wantX) {
		t.Fatalf("got %d residuals, want %d", len(xs), len(wantX))
	}
	for i := range wantX {
		if xs[i] != wantX[i] || ys[i] != wantY[i] {
			t.Errorf("residual %d = (%v, %v), want (%v, %v)", i, xs[i], ys[i], wantX[i], wantY[i])
		}
	}

	lx, ly := LogDifferences(trace)
	if len(lx) != 3 || ly[0] != math.Log(3) || ly[1] != 0 {
		t.Errorf("LogDifferences = %v, %v", lx, ly)
	}

	if xs, _ := Residuals([]float64{1}); xs != nil {
		t.Errorf("single entry residuals = %v, want nil", xs)
	}
}
