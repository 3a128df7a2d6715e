package loss

import (
	"math"
	"testing"
)

// TestMSEScore tests MSE loss computation.
func TestMSEScore(t *testing.T) {
	tests := []struct {
		name   string
		pred   []float64
		target []float64
		want   float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"single", []float64{5}, []float64{3}, 4},
		{"mixed", []float64{1, 2}, []float64{2, 4}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MSE{}.Score(tt.pred, tt.target)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("MSE = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMSEGradient tests that the gradient overwrites grad.
func TestMSEGradient(t *testing.T) {
	grad := []float64{7, 7}
	MSE{}.Gradient([]float64{1, 4}, []float64{2, 2}, grad)

	want := []float64{-1, 2}
	for i := range want {
		if math.Abs(grad[i]-want[i]) > 1e-12 {
			t.Errorf("grad[%d] = %v, want %v", i, grad[i], want[i])
		}
	}
}

func TestMSEPanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on mismatched lengths")
		}
	}()
	MSE{}.Score([]float64{1}, []float64{1, 2})
}

func TestByName(t *testing.T) {
	l, ok := ByName("mse")
	if !ok || l.Name() != "mse" {
		t.Errorf("ByName(mse) = %v, %v", l, ok)
	}
	if _, ok := ByName("hinge"); ok {
		t.Error("ByName(hinge) should not resolve")
	}
}
