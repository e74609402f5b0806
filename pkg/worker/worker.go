package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	poolerrors "github.com/jzx17/gopool/internal/errors"
	"github.com/jzx17/gopool/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker represents a single worker goroutine bound to one pool slot
type Worker struct {
	id    int
	name  string
	state atomic.Int32
	pool  *FixedWorkerPool
	done  chan struct{}

	// statistics
	totalProcessed atomic.Int64
	totalFailed    atomic.Int64
	lastTaskTime   atomic.Int64 // Unix nanosecond timestamp

	failures poolerrors.FailureHandler
	logger   *slog.Logger
	clock    types.Clock
}

func newWorker(id int, pool *FixedWorkerPool) *Worker {
	name := fmt.Sprintf("pool-worker-%d", id)
	return &Worker{
		id:       id,
		name:     name,
		pool:     pool,
		done:     make(chan struct{}),
		failures: pool.failures,
		logger:   pool.logger.With(slog.String("worker", name)),
		clock:    pool.config.Clock,
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// Name returns the Worker name
func (w *Worker) Name() string {
	return w.name
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Done is closed once the worker has exited its loop
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// start launches the consume loop
func (w *Worker) start() {
	w.logger.Debug("worker started")
	go w.run()
}

// run is the consume loop. The only way out is take reporting that the
// queue is drained and shutdown was requested.
func (w *Worker) run() {
	for {
		task, ok := w.pool.take()
		if !ok {
			w.stop()
			return
		}
		w.processTask(task)
	}
}

// stop marks the worker stopped; called once, from the goroutine that
// observed the drained queue
func (w *Worker) stop() {
	w.state.Store(int32(WorkerStateStopped))
	w.logger.Debug("worker stopped",
		slog.Int64("processed", w.totalProcessed.Load()),
		slog.Int64("failed", w.totalFailed.Load()))
	close(w.done)
	w.pool.wg.Done()
}

// processTask processes a single task outside the queue lock
func (w *Worker) processTask(task types.Task) {
	w.state.Store(int32(WorkerStateWorking))

	startTime := w.clock.Now()
	w.lastTaskTime.Store(startTime.UnixNano())

	returned := false
	defer func() {
		if returned {
			return
		}
		// runtime.Goexit unwound the task; recover cannot stop it, so the
		// loop continues on a fresh goroutine
		w.finishTask(types.NewTaskError(task.ID(), w.name, types.ErrTaskExited), w.clock.Since(startTime))
		w.logger.Warn("task exited the worker goroutine, resuming on a new one",
			slog.String("task_id", task.ID()))
		go w.run()
	}()

	err := w.executeTask(task)
	returned = true

	w.finishTask(err, w.clock.Since(startTime))
}

// finishTask records the outcome of one execution
func (w *Worker) finishTask(err error, executionTime time.Duration) {
	failed := err != nil
	if failed {
		w.totalFailed.Add(1)
		w.handleError(err, executionTime)
	} else {
		w.totalProcessed.Add(1)
	}

	w.state.Store(int32(WorkerStateIdle))
	w.pool.recordCompletion(executionTime, failed)
}

// executeTask executes a task with panic recovery support
func (w *Worker) executeTask(task types.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var cause error
			switch v := r.(type) {
			case error:
				cause = v
			default:
				cause = fmt.Errorf("panic: %v", v)
			}

			taskErr := types.NewTaskError(task.ID(), w.name, cause)
			taskErr.Panicked = true
			taskErr.Stack = string(buf[:n])
			err = taskErr
		}
	}()

	if execErr := task.Execute(w.pool.ctx); execErr != nil {
		return types.NewTaskError(task.ID(), w.name, execErr)
	}
	return nil
}

// handleError hands a contained failure to the pool's failure handler
func (w *Worker) handleError(err error, duration time.Duration) {
	fc := poolerrors.NewFailureContext(err, duration)
	if handlerErr := w.failures.HandleFailure(w.pool.ctx, fc); handlerErr != nil {
		w.logger.Warn("failure handler returned error",
			slog.String("task_id", fc.TaskID),
			slog.Any("error", handlerErr))
	}
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := w.lastTaskTime.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return WorkerStats{
		ID:             w.id,
		Name:           w.name,
		State:          w.State(),
		TotalProcessed: w.totalProcessed.Load(),
		TotalFailed:    w.totalFailed.Load(),
		LastTaskTime:   last,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	Name           string
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalProcessed) / float64(total)
}

// GetErrorRate gets the error rate
func (ws WorkerStats) GetErrorRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}
