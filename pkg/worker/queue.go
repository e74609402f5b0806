package worker

import (
	"sync"

	"github.com/jzx17/gopool/pkg/types"
)

// taskQueue is the bounded FIFO shared by producers and workers. It owns the
// pool's only mutex; notEmpty is waited on by idle workers, notFull by
// blocked submitters. Every method except length must be called with mu held.
type taskQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	// ring buffer, 0 <= size <= len(items)
	items []types.Task
	head  int
	size  int
}

// newTaskQueue creates a queue holding at most capacity tasks
func newTaskQueue(capacity int) *taskQueue {
	q := &taskQueue{
		items: make([]types.Task, capacity),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// enqueue appends task to the tail. The caller has checked !full() and is
// responsible for waking workers.
func (q *taskQueue) enqueue(task types.Task) {
	tail := (q.head + q.size) % len(q.items)
	q.items[tail] = task
	q.size++
}

// dequeue removes and returns the head, or nil when the queue is empty
func (q *taskQueue) dequeue() types.Task {
	if q.size == 0 {
		return nil
	}
	task := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return task
}

func (q *taskQueue) empty() bool {
	return q.size == 0
}

func (q *taskQueue) full() bool {
	return q.size == len(q.items)
}

func (q *taskQueue) capacity() int {
	return len(q.items)
}

// length returns the current queue length. Observational only.
func (q *taskQueue) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
