package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jzx17/gopool/internal/config"
	"github.com/jzx17/gopool/pkg/types"
	"github.com/jzx17/gopool/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func smallStress() config.StressConfig {
	return config.StressConfig{
		Tasks:     12,
		Producers: 3,
		BaseWork:  time.Millisecond,
		WorkStep:  time.Millisecond,
		WorkSteps: 3,
	}
}

func TestWorkDuration(t *testing.T) {
	cfg := config.Default().Stress
	assert.Equal(t, 100*time.Millisecond, workDuration(cfg, 0))
	assert.Equal(t, 180*time.Millisecond, workDuration(cfg, 4))
	assert.Equal(t, 100*time.Millisecond, workDuration(cfg, 5))
	assert.Equal(t, 140*time.Millisecond, workDuration(cfg, 27))
}

func TestRunStress(t *testing.T) {
	pool, err := worker.New(2, 2)
	require.NoError(t, err)
	defer pool.Close()

	report, err := runStress(context.Background(), smallStress(), pool, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, int64(12), report.Submitted)
	assert.Equal(t, int64(12), report.Completed)
	assert.Zero(t, report.Rejected)
	assert.Zero(t, report.Failed)
	assert.True(t, report.LateSubmitRejected)
	assert.LessOrEqual(t, report.MaxRunning, int64(2))
	assert.Positive(t, report.MaxRunning)
	assert.True(t, pool.IsTerminated())

	stats := pool.Stats()
	assert.Equal(t, int64(12), stats.TotalCompleted)
	assert.Equal(t, int64(1), stats.TotalRejected, "only the late submission is rejected")
}

func TestRunStress_Interrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	pc := worker.DefaultFixedWorkerPoolConfig()
	pc.PoolSize = 1
	pc.QueueSize = 1
	pc.BaseContext = ctx
	pool, err := worker.NewFixedWorkerPool(pc)
	require.NoError(t, err)
	defer pool.Close()

	cfg := config.StressConfig{
		Tasks:     10,
		Producers: 1,
		BaseWork:  50 * time.Millisecond,
		WorkSteps: 1,
	}

	report, err := runStress(ctx, cfg, pool, quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRejected)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "interrupted")

	assert.Equal(t, int64(1), report.Rejected)
	assert.Less(t, report.Submitted, int64(10))
	assert.Equal(t, report.Submitted, report.Completed+report.Failed)
	assert.True(t, report.LateSubmitRejected)
}

func TestRunStress_SubmitTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Pool.Workers = 1
	cfg.Pool.QueueSize = 1
	cfg.Pool.SubmitTimeout = 5 * time.Millisecond
	cfg.Stress = config.StressConfig{
		Tasks:     5,
		Producers: 1,
		BaseWork:  50 * time.Millisecond,
		WorkSteps: 1,
	}

	pool, err := worker.NewFixedWorkerPool(cfg.WorkerPoolConfig(quietLogger()))
	require.NoError(t, err)
	defer pool.Close()

	report, err := runStress(context.Background(), cfg.Stress, pool, quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTimeout)

	assert.Equal(t, int64(1), report.Rejected)
	assert.Less(t, report.Submitted, int64(5))
	assert.Less(t, report.MaxSubmitWait, 50*time.Millisecond)
	assert.Equal(t, report.Submitted, report.Completed)
}

func TestRunPool_PrintsReport(t *testing.T) {
	cfg := config.Default()
	cfg.Pool.Workers = 2
	cfg.Stress = smallStress()

	var out bytes.Buffer
	require.NoError(t, runPool(context.Background(), cfg, quietLogger(), &out))

	assert.Contains(t, out.String(), "completed:            12")
	assert.Contains(t, out.String(), "late submit rejected: true")
}

func TestRootCmd_Config(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--workers=5", "--queue-size=7"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "workers: 5")
	assert.Contains(t, out.String(), "queue-size: 7")
}

func TestRootCmd_Run(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run",
		"--workers=3", "--queue-size=2", "--tasks=9", "--producers=2",
		"--base-work=1ms", "--work-step=1ms",
		"--log-severity=OFF",
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "completed:            9")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "--workers=0"})

	assert.ErrorContains(t, cmd.Execute(), "pool.workers")
}
