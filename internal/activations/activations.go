// Package activations provides the logistic activation used by every
// non-input node of a network.
package activations

import "math"

// Sigmoid activation function.
type Sigmoid struct{}

// sigmoid computes the sigmoid function
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

// DerivativeFromOutput computes the derivative given an already activated
// value y = sigmoid(x), which is what nodes keep after a forward pass.
func (s Sigmoid) DerivativeFromOutput(y float64) float64 {
	return y * (1 - y)
}
