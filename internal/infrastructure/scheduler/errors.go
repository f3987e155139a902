package scheduler

import "errors"

var (
	// ErrInvalidTask is returned when a task has no name, no function or no interval
	ErrInvalidTask = errors.New("invalid scheduler task")

	// ErrDuplicateTask is returned when two tasks share a name
	ErrDuplicateTask = errors.New("duplicate scheduler task")

	// ErrSchedulerRunning is returned when tasks are added after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")
)
