package model

import "errors"

var (
	// ErrDataUnavailable covers empty or unreachable upstream data and
	// rejected period/interval combinations.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory means there are too few rows for a window or a forecast.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrComputation means the inputs of a computation were malformed.
	ErrComputation = errors.New("computation error")
)
