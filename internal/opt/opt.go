// Package opt provides gradient accumulation and the averaging update rule.
package opt

import "errors"

// ErrNoContributions is returned when an update is requested from an
// accumulator that never received a gradient contribution.
var ErrNoContributions = errors.New("opt: accumulator has no contributions")

// Accumulator sums gradient contributions between two updates.
type Accumulator struct {
	Sum   float64
	Count int
}

// Add records one contribution.
func (a *Accumulator) Add(v float64) {
	a.Sum += v
	a.Count++
}

// Empty reports whether no contribution has been recorded since the last reset.
func (a Accumulator) Empty() bool {
	return a.Count == 0
}

// Mean returns Sum / Count. It is only meaningful when the accumulator is not empty.
func (a Accumulator) Mean() float64 {
	return a.Sum / float64(a.Count)
}

// Reset zeroes both the sum and the count.
func (a *Accumulator) Reset() {
	a.Sum = 0
	a.Count = 0
}

// SGD moves a parameter by the averaged accumulated gradient.
//
// Accumulated values are already oriented as the direction to move in
// (target minus actual), so the update adds rather than subtracts.
type SGD struct {
	LearningRate float64
}

// Delta returns the change the accumulator asks for: lr * Sum / Count.
func (s SGD) Delta(acc Accumulator) (float64, error) {
	if acc.Empty() {
		return 0, ErrNoContributions
	}
	return s.LearningRate * acc.Mean(), nil
}

// StepInPlace updates param in-place by Delta and resets the accumulator.
// On error neither param nor acc is modified.
func (s SGD) StepInPlace(param *float64, acc *Accumulator) error {
	d, err := s.Delta(*acc)
	if err != nil {
		return err
	}
	*param += d
	acc.Reset()
	return nil
}
