// Package types defines core interfaces and types for the worker pool
package types

import (
	"context"
	"time"
)

// Task defines the task interface
type Task interface {
	// Execute runs the task body. A returned error or a panic is contained
	// by the worker that runs it.
	Execute(ctx context.Context) error

	// ID returns the task ID (for tracking and failure reports)
	ID() string
}

// WorkerPool defines the worker pool interface
type WorkerPool interface {
	// Submit enqueues a task, blocking while the queue is full
	Submit(task Task) error

	// SubmitContext enqueues a task, giving up when ctx is done while waiting for capacity
	SubmitContext(ctx context.Context, task Task) error

	// SubmitWithTimeout enqueues a task, waiting at most timeout for capacity
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// Shutdown stops accepting tasks; queued tasks still run
	Shutdown()

	// AwaitTermination blocks until every worker has exited
	AwaitTermination()

	// Close shuts the pool down and waits for termination
	Close() error

	// Size returns the number of workers
	Size() int

	// State returns the pool lifecycle state
	State() PoolState

	// Stats returns worker pool statistics
	Stats() WorkerPoolStats
}

// PoolState defines the lifecycle state of a worker pool
type PoolState int32

const (
	// StateAccepting the pool accepts new tasks
	StateAccepting PoolState = iota
	// StateDraining shutdown was requested, queued tasks are still running
	StateDraining
	// StateTerminated every worker has exited
	StateTerminated
)

// String returns the string representation of PoolState
func (ps PoolState) String() string {
	switch ps {
	case StateAccepting:
		return "Accepting"
	case StateDraining:
		return "Draining"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// WorkerPoolStats defines basic statistics for worker pools.
// Values are a snapshot and must not be used for coordination.
type WorkerPoolStats struct {
	// PoolSize is the size of the pool
	PoolSize int

	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// QueueCapacity is the capacity of the queue
	QueueCapacity int

	// TotalSubmitted is the number of accepted submissions
	TotalSubmitted int64

	// TotalRejected is the number of rejected submissions
	TotalRejected int64

	// TotalCompleted is the number of tasks that finished without error
	TotalCompleted int64

	// TotalFailed is the number of tasks that returned an error or panicked
	TotalFailed int64

	// TotalSubmitWait is the accumulated time submitters spent blocked on a full queue
	TotalSubmitWait time.Duration

	// TotalExecutionTime is the accumulated task execution time
	TotalExecutionTime time.Duration

	// State is the pool lifecycle state
	State PoolState
}

// AverageExecutionTime returns the mean execution time of finished tasks
func (s WorkerPoolStats) AverageExecutionTime() time.Duration {
	finished := s.TotalCompleted + s.TotalFailed
	if finished == 0 {
		return 0
	}
	return s.TotalExecutionTime / time.Duration(finished)
}

// ErrorHandler defines a per-task failure callback.
// For structured handling, use the FailureHandler interface in the internal/errors package
type ErrorHandler func(error) error
