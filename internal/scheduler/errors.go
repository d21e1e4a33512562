package scheduler

import "errors"

// Domain errors for the scheduler package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, scheduler.ErrTaskNotFound) {
//	    // handle not found case
//	}
var (
	// ErrTaskNotFound is returned when cancelling a task ID that is not queued.
	ErrTaskNotFound = errors.New("scheduler: task not found")

	// ErrTaskExists is returned when scheduling a task whose ID is already queued.
	ErrTaskExists = errors.New("scheduler: task already scheduled")

	// ErrNilCallback is returned when scheduling a task without a callback.
	ErrNilCallback = errors.New("scheduler: nil callback")

	// ErrInvalidClockTime is returned when a clock string is not valid "HH:MM".
	ErrInvalidClockTime = errors.New("scheduler: invalid clock time")

	// ErrAlreadyRunning is returned when Run is called on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler: already running")
)
