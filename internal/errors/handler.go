// Package errors provides failure reporting for task bodies run by the worker pool
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jzx17/gopool/pkg/types"
)

// FailureContext defines context information when a task fails
type FailureContext struct {
	// Error that occurred (a *types.TaskError when produced by a worker)
	Error error

	// TaskID is the ID of the failed task
	TaskID string

	// Worker is the name of the worker that ran the task
	Worker string

	// Panicked indicates the task panicked
	Panicked bool

	// Stack is the stack trace captured on panic
	Stack string

	// Timestamp when the failure was observed
	Timestamp time.Time

	// Duration of the failed execution
	Duration time.Duration
}

// NewFailureContext creates a failure context from a task error
func NewFailureContext(err error, duration time.Duration) *FailureContext {
	fc := &FailureContext{
		Error:     err,
		Timestamp: time.Now(),
		Duration:  duration,
	}

	var taskErr *types.TaskError
	if stderrors.As(err, &taskErr) {
		fc.TaskID = taskErr.TaskID
		fc.Worker = taskErr.Worker
		fc.Panicked = taskErr.Panicked
		fc.Stack = taskErr.Stack
	}
	return fc
}

// FailureHandler receives contained task failures.
// A returned error means the handler itself failed; it never reaches the worker loop.
type FailureHandler interface {
	// HandleFailure reports the failure
	HandleFailure(ctx context.Context, fc *FailureContext) error

	// Name returns the name of the handler
	Name() string
}

// LogHandler reports failures through a slog.Logger
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a new log handler. A nil logger discards output.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogHandler{logger: logger}
}

// HandleFailure implements the FailureHandler interface
func (h *LogHandler) HandleFailure(ctx context.Context, fc *FailureContext) error {
	attrs := []slog.Attr{
		slog.String("task_id", fc.TaskID),
		slog.String("worker", fc.Worker),
		slog.Bool("panic", fc.Panicked),
		slog.Duration("duration", fc.Duration),
		slog.Any("error", fc.Error),
	}
	if fc.Panicked {
		attrs = append(attrs, slog.String("stack", fc.Stack))
	}
	h.logger.LogAttrs(ctx, slog.LevelError, "task failed", attrs...)
	return nil
}

// Name returns the handler name
func (h *LogHandler) Name() string {
	return "Log"
}

// CallbackHandler adapts a types.ErrorHandler to the FailureHandler interface
type CallbackHandler struct {
	callback types.ErrorHandler
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(callback types.ErrorHandler) *CallbackHandler {
	return &CallbackHandler{callback: callback}
}

// HandleFailure implements the FailureHandler interface
func (h *CallbackHandler) HandleFailure(ctx context.Context, fc *FailureContext) error {
	if h.callback == nil {
		return nil
	}
	return h.callback(fc.Error)
}

// Name returns the handler name
func (h *CallbackHandler) Name() string {
	return "Callback"
}

// ChainHandler runs every registered handler in order
type ChainHandler struct {
	handlers []FailureHandler
	mu       sync.RWMutex
}

// NewChainHandler creates a new chain handler, skipping nil handlers
func NewChainHandler(handlers ...FailureHandler) *ChainHandler {
	chain := &ChainHandler{}
	for _, h := range handlers {
		if h != nil {
			chain.handlers = append(chain.handlers, h)
		}
	}
	return chain
}

// Add appends a handler to the chain
func (c *ChainHandler) Add(handler FailureHandler) error {
	if handler == nil {
		return fmt.Errorf("cannot add nil handler")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
	return nil
}

// HandleFailure runs all handlers; a panicking or failing handler does not
// stop the ones after it. Handler errors are joined.
func (c *ChainHandler) HandleFailure(ctx context.Context, fc *FailureContext) error {
	c.mu.RLock()
	handlers := make([]FailureHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := safeHandle(ctx, h, fc); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", h.Name(), err))
		}
	}
	return stderrors.Join(errs...)
}

// Name returns the handler name
func (c *ChainHandler) Name() string {
	return "Chain"
}

// Len returns the number of handlers in the chain
func (c *ChainHandler) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

func safeHandle(ctx context.Context, h FailureHandler, fc *FailureContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.HandleFailure(ctx, fc)
}
