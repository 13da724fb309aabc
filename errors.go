package plangen

import "errors"

var (
	// Not found errors.
	ErrJobNotFound = errors.New("plangen: job not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("plangen: job already exists")

	// State errors.
	ErrJobTerminal     = errors.New("plangen: job is in a terminal state")
	ErrJobNotClaimable = errors.New("plangen: job already claimed")

	// Dispatch errors.
	ErrDispatchFull = errors.New("plangen: dispatch queue full")
)
