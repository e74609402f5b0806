package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	poolerrors "github.com/jzx17/gopool/internal/errors"
	"github.com/jzx17/gopool/pkg/types"
)

// DefaultQueueSize is the queue capacity used when only a worker count is given
const DefaultQueueSize = 10

// FixedWorkerPoolConfig defines configuration for fixed worker pool
type FixedWorkerPoolConfig struct {
	// PoolSize is the number of workers
	PoolSize int

	// QueueSize is the task queue capacity
	QueueSize int

	// SubmitTimeout bounds how long Submit waits for capacity. Zero waits forever.
	SubmitTimeout time.Duration

	// BaseContext is passed to every task. The pool never cancels it.
	BaseContext context.Context

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle and failure logs (optional, defaults to discard)
	Logger *slog.Logger

	// ErrorHandler is called with every contained task failure
	ErrorHandler types.ErrorHandler
}

// DefaultFixedWorkerPoolConfig returns default configuration
func DefaultFixedWorkerPoolConfig() *FixedWorkerPoolConfig {
	return &FixedWorkerPoolConfig{
		PoolSize:  10,
		QueueSize: DefaultQueueSize,
		Clock:     types.NewRealClock(),
	}
}

// FixedWorkerPool implements a fixed-size worker pool over a bounded queue.
// All coordination goes through the queue's mutex; tasks run outside it.
type FixedWorkerPool struct {
	config  *FixedWorkerPoolConfig
	workers []*Worker
	queue   *taskQueue

	// shutdown is guarded by queue.mu and never goes back to false
	shutdown bool

	// state mirrors the lifecycle for observers; decisions use shutdown
	state      atomic.Int32
	wg         sync.WaitGroup
	terminated chan struct{}

	ctx      context.Context
	failures poolerrors.FailureHandler
	logger   *slog.Logger

	// statistics
	totalSubmitted  atomic.Int64
	totalRejected   atomic.Int64
	totalCompleted  atomic.Int64
	totalFailed     atomic.Int64
	totalSubmitWait atomic.Int64
	totalExecTime   atomic.Int64
}

// New creates and starts a pool with poolSize workers and a queue of queueSize tasks
func New(poolSize, queueSize int) (*FixedWorkerPool, error) {
	config := DefaultFixedWorkerPoolConfig()
	config.PoolSize = poolSize
	config.QueueSize = queueSize
	return NewFixedWorkerPool(config)
}

// NewWithWorkers creates and starts a pool with the default queue capacity
func NewWithWorkers(poolSize int) (*FixedWorkerPool, error) {
	return New(poolSize, DefaultQueueSize)
}

// NewFixedWorkerPool creates a new fixed worker pool. All workers are
// running when it returns.
func NewFixedWorkerPool(config *FixedWorkerPoolConfig) (*FixedWorkerPool, error) {
	if config == nil {
		config = DefaultFixedWorkerPoolConfig()
	}

	// parameter validation
	if config.PoolSize <= 0 {
		return nil, fmt.Errorf("%w: pool size must be positive, got %d", types.ErrInvalidArgument, config.PoolSize)
	}
	if config.QueueSize <= 0 {
		return nil, fmt.Errorf("%w: queue size must be positive, got %d", types.ErrInvalidArgument, config.QueueSize)
	}

	cfg := *config
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool := &FixedWorkerPool{
		config:     &cfg,
		queue:      newTaskQueue(cfg.QueueSize),
		workers:    make([]*Worker, cfg.PoolSize),
		terminated: make(chan struct{}),
		ctx:        cfg.BaseContext,
		logger:     logger,
		failures: poolerrors.NewChainHandler(
			poolerrors.NewLogHandler(logger),
			poolerrors.NewCallbackHandler(cfg.ErrorHandler),
		),
	}

	for i := range pool.workers {
		pool.workers[i] = newWorker(i, pool)
	}

	pool.wg.Add(len(pool.workers))
	for _, w := range pool.workers {
		w.start()
	}

	go func() {
		pool.wg.Wait()
		pool.state.Store(int32(types.StateTerminated))
		pool.logger.Info("worker pool terminated",
			slog.Int64("completed", pool.totalCompleted.Load()),
			slog.Int64("failed", pool.totalFailed.Load()))
		close(pool.terminated)
	}()

	logger.Debug("worker pool started",
		slog.Int("pool_size", cfg.PoolSize),
		slog.Int("queue_size", cfg.QueueSize))

	return pool, nil
}

// Submit submits a task, blocking while the queue is full. If SubmitTimeout
// is configured the wait is bounded by it.
func (p *FixedWorkerPool) Submit(task types.Task) error {
	return p.SubmitContext(context.Background(), task)
}

// SubmitFunc submits a plain closure
func (p *FixedWorkerPool) SubmitFunc(fn func()) error {
	if fn == nil {
		return fmt.Errorf("%w: function cannot be nil", types.ErrInvalidArgument)
	}
	return p.Submit(NewFuncTask(fn))
}

// SubmitContext submits a task, blocking while the queue is full. If ctx is
// done while waiting the task is rejected with the context's cause. A
// configured SubmitTimeout bounds the wait as well.
func (p *FixedWorkerPool) SubmitContext(ctx context.Context, task types.Task) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.config.SubmitTimeout <= 0 {
		return p.submit(ctx, task)
	}

	ctx, stop := p.withTimeout(ctx, p.config.SubmitTimeout)
	defer stop()
	return p.submit(ctx, task)
}

// SubmitWithTimeout submits a task, waiting at most timeout for capacity.
// A non-positive timeout only enqueues if a slot is free right now.
func (p *FixedWorkerPool) SubmitWithTimeout(task types.Task, timeout time.Duration) error {
	if timeout <= 0 {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(types.ErrTimeout)
		return p.submit(ctx, task)
	}

	ctx, stop := p.withTimeout(context.Background(), timeout)
	defer stop()
	return p.submit(ctx, task)
}

// withTimeout derives a context cancelled with cause types.ErrTimeout once
// timeout has elapsed on the pool's clock.
func (p *FixedWorkerPool) withTimeout(parent context.Context, timeout time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	timer := p.config.Clock.NewTimer(timeout)
	go func() {
		select {
		case <-timer.C():
			cancel(types.ErrTimeout)
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		timer.Stop()
		cancel(nil)
	}
}

func (p *FixedWorkerPool) submit(ctx context.Context, task types.Task) error {
	if task == nil {
		return fmt.Errorf("%w: task cannot be nil", types.ErrInvalidArgument)
	}

	if err := p.put(ctx, task); err != nil {
		p.totalRejected.Add(1)
		return err
	}
	p.totalSubmitted.Add(1)
	return nil
}

// put is the producer side of the monitor
func (p *FixedWorkerPool) put(ctx context.Context, task types.Task) error {
	q := p.queue
	q.mu.Lock()
	defer q.mu.Unlock()

	if p.shutdown {
		return types.NewRejectedError("pool is shut down", types.ErrPoolShutdown)
	}

	if q.full() {
		start := p.config.Clock.Now()
		defer func() {
			p.totalSubmitWait.Add(int64(p.config.Clock.Since(start)))
		}()

		// Cond.Wait cannot select on ctx; wake the waiters when it is done.
		// The callback needs q.mu, so it cannot fire between the ctx check
		// and Wait below.
		if ctx.Done() != nil {
			stop := context.AfterFunc(ctx, func() {
				q.mu.Lock()
				defer q.mu.Unlock()
				q.notFull.Broadcast()
			})
			defer stop()
		}

		for q.full() && !p.shutdown {
			if ctx.Err() != nil {
				cause := context.Cause(ctx)
				if errors.Is(cause, types.ErrTimeout) {
					return types.NewRejectedError("timed out waiting for queue capacity", cause)
				}
				return types.NewRejectedError("interrupted while waiting for queue capacity", cause)
			}
			q.notFull.Wait()
		}

		if p.shutdown {
			return types.NewRejectedError("pool shut down while waiting for queue capacity", types.ErrPoolShutdown)
		}
	}

	q.enqueue(task)
	q.notEmpty.Broadcast()
	return nil
}

// take is the consumer side of the monitor. It returns false only when the
// queue is empty and shutdown was requested.
func (p *FixedWorkerPool) take() (types.Task, bool) {
	q := p.queue
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.empty() && !p.shutdown {
		q.notEmpty.Wait()
	}

	task := q.dequeue()
	if task == nil {
		return nil, false
	}

	// a slot was freed
	q.notFull.Broadcast()
	return task, true
}

// Shutdown stops accepting new tasks and wakes every waiter. Tasks already
// queued still run. It never blocks and may be called any number of times.
func (p *FixedWorkerPool) Shutdown() {
	q := p.queue
	q.mu.Lock()
	if p.shutdown {
		q.mu.Unlock()
		return
	}
	p.shutdown = true
	p.state.CompareAndSwap(int32(types.StateAccepting), int32(types.StateDraining))
	queued := q.size
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mu.Unlock()

	p.logger.Info("worker pool shutdown requested", slog.Int("queued", queued))
}

// AwaitTermination blocks until every worker has exited. Without a prior
// Shutdown it blocks forever.
func (p *FixedWorkerPool) AwaitTermination() {
	<-p.terminated
}

// AwaitTerminationTimeout waits at most timeout for termination and returns
// types.ErrTimeout if the workers are still running.
func (p *FixedWorkerPool) AwaitTerminationTimeout(timeout time.Duration) error {
	select {
	case <-p.terminated:
		return nil
	default:
	}

	timer := p.config.Clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.terminated:
		return nil
	case <-timer.C():
		return fmt.Errorf("await termination after %v: %w", timeout, types.ErrTimeout)
	}
}

// Close shuts the pool down and waits for queued tasks to finish
func (p *FixedWorkerPool) Close() error {
	p.Shutdown()
	p.AwaitTermination()
	return nil
}

// recordCompletion is called by workers after each task
func (p *FixedWorkerPool) recordCompletion(executionTime time.Duration, failed bool) {
	if failed {
		p.totalFailed.Add(1)
	} else {
		p.totalCompleted.Add(1)
	}
	p.totalExecTime.Add(int64(executionTime))
}

// Size returns the worker pool size
func (p *FixedWorkerPool) Size() int {
	return p.config.PoolSize
}

// State returns the pool lifecycle state
func (p *FixedWorkerPool) State() types.PoolState {
	return types.PoolState(p.state.Load())
}

// IsShutdown reports whether Shutdown has been called
func (p *FixedWorkerPool) IsShutdown() bool {
	return p.State() != types.StateAccepting
}

// IsTerminated reports whether every worker has exited
func (p *FixedWorkerPool) IsTerminated() bool {
	return p.State() == types.StateTerminated
}

// Stats gets worker pool statistics
func (p *FixedWorkerPool) Stats() types.WorkerPoolStats {
	var activeWorkers int
	for _, w := range p.workers {
		if w.State() == WorkerStateWorking {
			activeWorkers++
		}
	}

	return types.WorkerPoolStats{
		PoolSize:           p.config.PoolSize,
		ActiveWorkers:      activeWorkers,
		QueueSize:          p.queue.length(),
		QueueCapacity:      p.queue.capacity(),
		TotalSubmitted:     p.totalSubmitted.Load(),
		TotalRejected:      p.totalRejected.Load(),
		TotalCompleted:     p.totalCompleted.Load(),
		TotalFailed:        p.totalFailed.Load(),
		TotalSubmitWait:    time.Duration(p.totalSubmitWait.Load()),
		TotalExecutionTime: time.Duration(p.totalExecTime.Load()),
		State:              p.State(),
	}
}

// GetWorkerStats gets statistics of all Workers
func (p *FixedWorkerPool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

// QueueLength gets the current queue length
func (p *FixedWorkerPool) QueueLength() int {
	return p.queue.length()
}

// QueueCapacity gets the queue capacity
func (p *FixedWorkerPool) QueueCapacity() int {
	return p.queue.capacity()
}

var _ types.WorkerPool = (*FixedWorkerPool)(nil)
