// Package loss provides the training loss used by the backpropagator.
package loss

import "gonum.org/v1/gonum/floats"

// HalfSquared is the half sum of squared errors: 0.5 * sum((y_true - y_pred)^2).
// Unlike a mean squared error it is not divided by the number of outputs.
type HalfSquared struct{}

// Forward computes 0.5 * sum((y_true - y_pred)^2).
func (HalfSquared) Forward(yPred, yTrue []float64) float64 {
	if len(yPred) != len(yTrue) {
		panic("HalfSquared: prediction and target must have same length")
	}
	diff := make([]float64, len(yPred))
	floats.SubTo(diff, yTrue, yPred)
	return 0.5 * floats.Dot(diff, diff)
}

// ErrorInPlace stores the error signal y_true - y_pred in dst.
// This is the negated gradient of Forward with respect to y_pred.
func (HalfSquared) ErrorInPlace(yPred, yTrue, dst []float64) {
	if len(yPred) != len(yTrue) || len(yPred) != len(dst) {
		panic("HalfSquared: slices must have same length")
	}
	floats.SubTo(dst, yTrue, yPred)
}
