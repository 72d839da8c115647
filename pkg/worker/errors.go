package worker

import "errors"

var (
	// ErrNilProcessor is raised when a pool is constructed without a processor function
	ErrNilProcessor = errors.New("worker pool processor cannot be nil")

	// ErrPoolNotStarted is returned when submitting work before Start
	ErrPoolNotStarted = errors.New("worker pool not started")

	// ErrPoolAlreadyStarted is returned when Start is called twice
	ErrPoolAlreadyStarted = errors.New("worker pool already started")

	// ErrPoolStopped is returned when submitting work after Stop
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrQueueFull is returned when the work queue is at capacity
	ErrQueueFull = errors.New("worker pool queue full")

	// ErrStopTimeout is returned when workers fail to drain within the stop timeout
	ErrStopTimeout = errors.New("worker pool stop timeout")
)
