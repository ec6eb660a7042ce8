package evercron

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("evercron: no store configured")
	ErrStoreClosed = errors.New("evercron: store closed")

	// Not found errors.
	ErrJobNotFound       = errors.New("evercron: job not found")
	ErrExecutionNotFound = errors.New("evercron: execution not found")

	// Conflict errors.
	ErrAlreadyRecorded = errors.New("evercron: execution already recorded for this instant")
	ErrDuplicateJob    = errors.New("evercron: job already registered")

	// Lifecycle errors.
	ErrAlreadyStarted = errors.New("evercron: runner already started")
	ErrNotStarted     = errors.New("evercron: runner not started")
	ErrJobDisabled    = errors.New("evercron: job is disabled")
)
