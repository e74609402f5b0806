package types

import (
	"testing"
	"time"
)

func TestPoolState_String(t *testing.T) {
	tests := []struct {
		state    PoolState
		expected string
	}{
		{StateAccepting, "Accepting"},
		{StateDraining, "Draining"},
		{StateTerminated, "Terminated"},
		{PoolState(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.state.String()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestWorkerPoolStats_AverageExecutionTime(t *testing.T) {
	t.Run("No Finished Tasks", func(t *testing.T) {
		stats := WorkerPoolStats{TotalExecutionTime: time.Second}
		if got := stats.AverageExecutionTime(); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("Completed And Failed", func(t *testing.T) {
		stats := WorkerPoolStats{
			TotalCompleted:     3,
			TotalFailed:        1,
			TotalExecutionTime: 400 * time.Millisecond,
		}
		if got := stats.AverageExecutionTime(); got != 100*time.Millisecond {
			t.Errorf("expected 100ms, got %v", got)
		}
	})
}

func TestRealClock(t *testing.T) {
	clock := NewRealClock()

	start := clock.Now()
	if start.IsZero() {
		t.Fatalf("expected non-zero time")
	}

	timer := clock.NewTimer(10 * time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatalf("timer did not fire")
	}

	if elapsed := clock.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected at least 10ms elapsed, got %v", elapsed)
	}

	stopped := clock.NewTimer(time.Hour)
	if !stopped.Stop() {
		t.Errorf("expected Stop to report an active timer")
	}
}
