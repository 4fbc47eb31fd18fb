package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a scheduler that is not started
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrTaskQueueFull is returned when the bounded backlog is full
	ErrTaskQueueFull = errors.New("task queue is full")

	// ErrInvalidConfig is returned for a non-positive worker count or queue size
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
