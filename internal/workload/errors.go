package workload

import "errors"

var (
	// ErrUnknownMode is returned for mode names other than normal or stress.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrNoServices is returned when a configuration has no service labels.
	ErrNoServices = errors.New("at least one service is required")

	// ErrNoChannels is returned when a configuration has no channel labels.
	ErrNoChannels = errors.New("at least one channel is required")

	// ErrInvalidRate is returned for a negative or non-finite base rate.
	ErrInvalidRate = errors.New("base rate must be a finite non-negative number")
)
