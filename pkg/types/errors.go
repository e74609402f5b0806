// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrRejected matches every rejected submission
	ErrRejected = errors.New("task rejected")

	// ErrPoolShutdown indicates the pool no longer accepts tasks
	ErrPoolShutdown = errors.New("worker pool is shut down")

	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrInvalidArgument indicates invalid input
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTaskExited indicates a task ended its goroutine with runtime.Goexit
	ErrTaskExited = errors.New("task exited without returning")
)

// RejectedError is returned by Submit when a task was not enqueued
type RejectedError struct {
	// Reason is a short description of why the task was rejected
	Reason string

	// Cause is the underlying error (ErrPoolShutdown, ErrTimeout or a context error)
	Cause error
}

// NewRejectedError creates a new rejection error
func NewRejectedError(reason string, cause error) *RejectedError {
	return &RejectedError{Reason: reason, Cause: cause}
}

// Error implements the error interface
func (e *RejectedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("task rejected: %s", e.Reason)
	}
	return fmt.Sprintf("task rejected: %s: %v", e.Reason, e.Cause)
}

// Unwrap returns the underlying error
func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Is reports ErrRejected as a match for every RejectedError
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// IsRejected checks if an error is a rejected submission
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// TaskError represents a contained task failure
type TaskError struct {
	// TaskID is the ID of the failed task
	TaskID string

	// Worker is the name of the worker that ran the task
	Worker string

	// Cause is the error returned by the task, or the recovered panic value as an error
	Cause error

	// Panicked indicates the task panicked instead of returning an error
	Panicked bool

	// Stack is the goroutine stack captured when the task panicked
	Stack string
}

// NewTaskError creates a new task error
func NewTaskError(taskID, worker string, cause error) *TaskError {
	return &TaskError{
		TaskID: taskID,
		Worker: worker,
		Cause:  cause,
	}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("task %s panicked on %s: %v", e.TaskID, e.Worker, e.Cause)
	}
	return fmt.Sprintf("task %s failed on %s: %v", e.TaskID, e.Worker, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}
