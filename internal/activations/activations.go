// Package activations provides activation functions for dense layers.
package activations

import "math"

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) given the pre-activation x
	Derivative(x float64) float64

	// Name identifies the activation in serialized configurations.
	Name() string
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (r ReLU) Name() string { return "relu" }

// Identity passes values through unchanged. Used on regression outputs.
type Identity struct{}

func (Identity) Activate(x float64) float64 { return x }
func (Identity) Derivative(x float64) float64 { return 1 }
func (Identity) Name() string { return "identity" }

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (t Tanh) Derivative(x float64) float64 {
	tanhX := math.Tanh(x)
	return 1 - tanhX*tanhX
}

func (t Tanh) Name() string { return "tanh" }

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

func (s Sigmoid) Name() string { return "sigmoid" }

// ByName returns the activation registered under name.
func ByName(name string) (Activation, bool) {
	switch name {
	case "relu":
		return ReLU{}, true
	case "identity":
		return Identity{}, true
	case "tanh":
		return Tanh{}, true
	case "sigmoid":
		return Sigmoid{}, true
	}
	return nil, false
}
