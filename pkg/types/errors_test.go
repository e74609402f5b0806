package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrRejected", ErrRejected},
		{"ErrPoolShutdown", ErrPoolShutdown},
		{"ErrTimeout", ErrTimeout},
		{"ErrInvalidArgument", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("expected error, got nil")
			}
			if tt.err.Error() == "" {
				t.Errorf("expected non-empty error message")
			}
		})
	}
}

func TestRejectedError(t *testing.T) {
	t.Run("Shutdown Cause", func(t *testing.T) {
		err := NewRejectedError("pool is shut down", ErrPoolShutdown)

		if !errors.Is(err, ErrRejected) {
			t.Errorf("expected errors.Is(err, ErrRejected)")
		}
		if !errors.Is(err, ErrPoolShutdown) {
			t.Errorf("expected errors.Is(err, ErrPoolShutdown)")
		}
		if errors.Is(err, ErrTimeout) {
			t.Errorf("did not expect errors.Is(err, ErrTimeout)")
		}

		expectedMsg := "task rejected: pool is shut down: worker pool is shut down"
		if err.Error() != expectedMsg {
			t.Errorf("expected message %q, got %q", expectedMsg, err.Error())
		}
	})

	t.Run("Context Cause", func(t *testing.T) {
		err := NewRejectedError("interrupted while waiting for queue capacity", context.Canceled)

		if !IsRejected(err) {
			t.Errorf("expected IsRejected to be true")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected errors.Is(err, context.Canceled)")
		}
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("submit task-1: %w", NewRejectedError("timed out", ErrTimeout))

		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected errors.As to find *RejectedError")
		}
		if rejected.Reason != "timed out" {
			t.Errorf("expected reason 'timed out', got %q", rejected.Reason)
		}
		if !IsRejected(err) {
			t.Errorf("expected IsRejected on wrapped error")
		}
	})

	t.Run("Nil Cause", func(t *testing.T) {
		err := NewRejectedError("no reason", nil)
		if err.Error() != "task rejected: no reason" {
			t.Errorf("unexpected message %q", err.Error())
		}
		if err.Unwrap() != nil {
			t.Errorf("expected nil unwrap")
		}
	})

	t.Run("Plain Errors Are Not Rejections", func(t *testing.T) {
		if IsRejected(errors.New("boom")) {
			t.Errorf("plain error must not be a rejection")
		}
		if IsRejected(nil) {
			t.Errorf("nil must not be a rejection")
		}
	})
}

func TestTaskError(t *testing.T) {
	t.Run("Returned Error", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewTaskError("task-7", "pool-worker-2", cause)

		if !errors.Is(err, cause) {
			t.Errorf("expected cause to be unwrapped")
		}
		expectedMsg := "task task-7 failed on pool-worker-2: disk full"
		if err.Error() != expectedMsg {
			t.Errorf("expected message %q, got %q", expectedMsg, err.Error())
		}
	})

	t.Run("Panic", func(t *testing.T) {
		err := NewTaskError("task-8", "pool-worker-0", errors.New("panic: boom"))
		err.Panicked = true
		err.Stack = "goroutine 1 [running]:"

		if !strings.Contains(err.Error(), "panicked") {
			t.Errorf("expected panic message, got %q", err.Error())
		}
	})
}
