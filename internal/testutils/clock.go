package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/gopool/pkg/types"
	"github.com/stretchr/testify/require"
)

// PoolClock drives a pool's timers and stats from quartz mock time
type PoolClock struct {
	Mock *quartz.Mock
}

// NewPoolClock returns a mock-backed types.Clock bound to t
func NewPoolClock(t testing.TB) *PoolClock {
	return &PoolClock{Mock: quartz.NewMock(t)}
}

func (c *PoolClock) Now() time.Time {
	return c.Mock.Now()
}

func (c *PoolClock) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

func (c *PoolClock) NewTimer(d time.Duration) types.Timer {
	return mockTimer{c.Mock.NewTimer(d)}
}

// Advance moves mock time forward by d and waits for the timers it fired
func (c *PoolClock) Advance(t testing.TB, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultWait)
	defer cancel()
	c.Mock.Advance(d).MustWait(ctx)
}

// AdvanceUntilClosed steps mock time by step until ch is closed. A submit
// may register its timer after the first step, so one step is not enough.
func (c *PoolClock) AdvanceUntilClosed(t testing.TB, step time.Duration, ch <-chan struct{}) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.Advance(t, step)
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}, DefaultWait, 10*time.Millisecond)
}

type mockTimer struct {
	timer *quartz.Timer
}

func (t mockTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t mockTimer) Stop() bool {
	return t.timer.Stop()
}

var _ types.Clock = (*PoolClock)(nil)
