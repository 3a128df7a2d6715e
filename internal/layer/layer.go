// Package layer provides neural network layer implementations.
package layer

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/winequality/internal/activations"
)

// Layer is a neural network layer.
//
// Backward accumulates into the layer's gradient buffers until ZeroGradients
// is called, so a minibatch can be processed one sample at a time.
type Layer interface {
	Forward(x []float64) []float64
	Backward(grad []float64) []float64
	Params() []float64
	SetParams([]float64)
	Gradients() []float64
	ZeroGradients()
	InSize() int
	OutSize() int
}

// TrainingAware is implemented by layers that behave differently in training.
type TrainingAware interface {
	SetTraining(training bool)
}

// Weighted is implemented by layers whose leading parameters are weights
// subject to L2 regularization. Biases follow and are not regularized.
type Weighted interface {
	WeightCount() int
}

// Dense is a fully connected layer.
// Uses contiguous memory layout with pre-allocated buffers for minimal allocations.
type Dense struct {
	// Weights stored as row-major contiguous slice
	// Shape: [out * in] where weight for output i, input j is at weights[i*in + j]
	weights []float64
	biases  []float64
	act     activations.Activation
	outSize int
	inSize  int

	// Reusable buffers for gradient computation
	inputBuf  []float64
	outputBuf []float64
	preActBuf []float64
	gradWBuf  []float64
	gradBBuf  []float64
	gradInBuf []float64
	dzBuf     []float64
}

// NewDense creates a dense layer with Xavier/Glorot uniform initialization
// drawn from rng. Biases start at zero.
func NewDense(in, out int, act activations.Activation, rng *rand.Rand) *Dense {
	weights := make([]float64, out*in)
	biases := make([]float64, out)

	scale := math.Sqrt(6.0 / (float64(in) + float64(out)))
	for i := range weights {
		weights[i] = rng.Float64()*2*scale - scale
	}

	return &Dense{
		weights:   weights,
		biases:    biases,
		act:       act,
		outSize:   out,
		inSize:    in,
		inputBuf:  make([]float64, in),
		outputBuf: make([]float64, out),
		preActBuf: make([]float64, out),
		gradWBuf:  make([]float64, out*in),
		gradBBuf:  make([]float64, out),
		gradInBuf: make([]float64, in),
		dzBuf:     make([]float64, out),
	}
}

// Forward performs a forward pass through the dense layer.
// The returned slice is owned by the layer and overwritten on the next call.
func (d *Dense) Forward(x []float64) []float64 {
	copy(d.inputBuf, x)

	for o := 0; o < d.outSize; o++ {
		row := d.weights[o*d.inSize : (o+1)*d.inSize]
		sum := d.biases[o] + floats.Dot(row, d.inputBuf)
		d.preActBuf[o] = sum
		d.outputBuf[o] = d.act.Activate(sum)
	}

	return d.outputBuf
}

// Backward performs backpropagation through the dense layer, adding the
// weight and bias gradients of this sample to the accumulated buffers.
func (d *Dense) Backward(grad []float64) []float64 {
	inSize := d.inSize
	dz := d.dzBuf

	// dz = dL/d(output) * activation'(z)
	for o := 0; o < d.outSize; o++ {
		dz[o] = grad[o] * d.act.Derivative(d.preActBuf[o])
		d.gradBBuf[o] += dz[o]
	}

	// dL/dW[o, i] += dz[o] * input[i]
	// dL/dx[i] = sum_o(dz[o] * W[o, i])
	for i := range d.gradInBuf {
		d.gradInBuf[i] = 0
	}
	for o := 0; o < d.outSize; o++ {
		if dz[o] == 0 {
			continue
		}
		wBase := o * inSize
		floats.AddScaled(d.gradWBuf[wBase:wBase+inSize], dz[o], d.inputBuf)
		floats.AddScaled(d.gradInBuf, dz[o], d.weights[wBase:wBase+inSize])
	}

	return d.gradInBuf
}

// Params returns all dense layer parameters flattened (weights then biases).
func (d *Dense) Params() []float64 {
	params := make([]float64, 0, len(d.weights)+len(d.biases))
	params = append(params, d.weights...)
	params = append(params, d.biases...)
	return params
}

// SetParams updates weights and biases from a flattened slice (in-place).
func (d *Dense) SetParams(params []float64) {
	copy(d.weights, params[:len(d.weights)])
	copy(d.biases, params[len(d.weights):])
}

// Gradients returns all dense layer gradients flattened.
func (d *Dense) Gradients() []float64 {
	gradients := make([]float64, 0, len(d.gradWBuf)+len(d.gradBBuf))
	gradients = append(gradients, d.gradWBuf...)
	gradients = append(gradients, d.gradBBuf...)
	return gradients
}

// ZeroGradients clears the accumulated gradients.
func (d *Dense) ZeroGradients() {
	for i := range d.gradWBuf {
		d.gradWBuf[i] = 0
	}
	for i := range d.gradBBuf {
		d.gradBBuf[i] = 0
	}
}

// WeightCount returns the number of weights; biases follow them in Params.
func (d *Dense) WeightCount() int {
	return len(d.weights)
}

// GetWeight gets a single weight at (row, col).
func (d *Dense) GetWeight(row, col int) float64 {
	return d.weights[row*d.inSize+col]
}

// SetWeight sets a single weight at (row, col).
func (d *Dense) SetWeight(row, col int, val float64) {
	d.weights[row*d.inSize+col] = val
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}
