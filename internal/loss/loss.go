// Package loss holds the objectives a network is trained to minimize.
package loss

import "fmt"

// Loss scores a prediction against its target and writes the gradient of
// that score with respect to the prediction.
type Loss interface {
	Name() string
	Score(pred, target []float64) float64
	// Gradient overwrites grad, which has the length of pred.
	Gradient(pred, target, grad []float64)
}

// MSE is the squared error averaged over the output columns.
type MSE struct{}

func (MSE) Name() string { return "mse" }

func (MSE) Score(pred, target []float64) float64 {
	sameLength(pred, target)
	var sum float64
	for i, p := range pred {
		e := p - target[i]
		sum += e * e
	}
	return sum / float64(len(pred))
}

// Gradient writes 2/n * (pred - target).
func (MSE) Gradient(pred, target, grad []float64) {
	sameLength(pred, target)
	sameLength(pred, grad)
	scale := 2 / float64(len(pred))
	for i, p := range pred {
		grad[i] = scale * (p - target[i])
	}
}

func sameLength(a, b []float64) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("loss: length mismatch %d != %d", len(a), len(b)))
	}
}

// ByName returns the loss stored under name in a checkpoint.
func ByName(name string) (Loss, bool) {
	if name == (MSE{}).Name() {
		return MSE{}, true
	}
	return nil, false
}
