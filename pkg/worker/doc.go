/*
Package worker provides a fixed-size worker pool fed by a bounded task queue.

# Overview

A FixedWorkerPool owns N worker goroutines and a FIFO queue of capacity C.
Producers block in Submit while the queue is full (backpressure); idle
workers block while it is empty. Shutdown is two-phase: new submissions are
rejected at once, queued tasks are still executed, and AwaitTermination
returns once every worker has drained the queue and exited.

# Core Components

## Task Queue

The queue is the pool's monitor: one sync.Mutex with two condition
variables, notFull for producers and notEmpty for workers. Every enqueue,
dequeue and read of the shutdown flag that drives a decision happens under
that mutex, and every wait re-checks its predicate in a loop.

## FixedWorkerPool

  - New / NewWithWorkers / NewFixedWorkerPool: validate arguments and start all workers
  - Submit, SubmitContext, SubmitWithTimeout, SubmitFunc: blocking enqueue
  - Shutdown: idempotent, never blocks
  - AwaitTermination, AwaitTerminationTimeout, Close: wait for the drain

## Worker

Each worker loops: take a task under the lock, release the lock, run the
task. A task that returns an error or panics is reported through the
failure handler chain (slog and the optional ErrorHandler) and the worker
moves on. The only exit is an empty queue after Shutdown.

# Lifecycle

	Accepting --Shutdown--> Draining --all workers exited--> Terminated

# Error Handling

  - construction with a non-positive size wraps types.ErrInvalidArgument
  - every rejected submission is a *types.RejectedError and matches
    types.ErrRejected; the cause is types.ErrPoolShutdown, types.ErrTimeout
    or the submitter's context error
  - task failures never reach the submitter; they are *types.TaskError
    values delivered to the failure handlers

# Usage Examples

Basic usage:

	pool, err := worker.New(3, 10)
	if err != nil {
		log.Fatal(err)
	}

	for i := 0; i < 30; i++ {
		if err := pool.SubmitFunc(doWork); err != nil {
			log.Printf("submit: %v", err)
		}
	}

	pool.Shutdown()
	pool.AwaitTermination()

Cancelling a blocked submission:

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := pool.SubmitContext(ctx, task); errors.Is(err, context.DeadlineExceeded) {
		log.Println("queue stayed full")
	}
*/
package worker
