package net

import "errors"

// Error kinds reported by the engine. Call sites wrap them with context, so
// use errors.Is to test for a kind.
var (
	// ErrInvalidTopology is returned by Build for a non-positive layer size.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrInputSizeMismatch is returned when an input vector length differs
	// from the network's input count.
	ErrInputSizeMismatch = errors.New("input size mismatch")

	// ErrOutputSizeMismatch is returned when a target vector length differs
	// from the network's output count.
	ErrOutputSizeMismatch = errors.New("output size mismatch")

	// ErrFormat is returned when persisted text is malformed or truncated.
	ErrFormat = errors.New("format error")

	// ErrDivideByZeroOnApply is returned by Apply when a weight or bias has
	// no accumulated gradient contribution.
	ErrDivideByZeroOnApply = errors.New("divide by zero on apply")
)
