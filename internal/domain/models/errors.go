package models

import "errors"

// Error taxonomy for a run. A run either completes with a full report or
// aborts with exactly one of these categories; partial reports are never
// returned.
var (
	// ErrInsufficientData means the input series is too short for the
	// configured lookback. Fatal to the current run, never retried.
	ErrInsufficientData = errors.New("insufficient data for configured lookback")

	// ErrInvalidConfiguration means a parameter is outside its declared
	// domain. Rejected at validation, before any bar is processed.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAdvisorTimeout means the advisor call exceeded its deadline. The
	// optimizer treats the iteration as rejected and continues.
	ErrAdvisorTimeout = errors.New("advisor timeout")

	// ErrAdvisorMalformed means the advisor response could not be decoded
	// or named unknown parameters. Handled like a timeout.
	ErrAdvisorMalformed = errors.New("advisor malformed response")
)
