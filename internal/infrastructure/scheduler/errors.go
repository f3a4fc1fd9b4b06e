package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler: not running")

	// ErrJobQueueFull is returned when the bounded queue has no room
	ErrJobQueueFull = errors.New("scheduler: job queue is full")

	// ErrJobInProgress is returned when the same job is already queued or running
	ErrJobInProgress = errors.New("scheduler: job already queued or running")

	// ErrUnknownJobType is returned for job types without a handler
	ErrUnknownJobType = errors.New("scheduler: unknown job type")

	// ErrInvalidConfig is returned for unusable scheduler settings
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")
)
