package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jzx17/gopool/internal/config"
	"github.com/jzx17/gopool/pkg/types"
	"github.com/jzx17/gopool/pkg/worker"
	"golang.org/x/sync/errgroup"
)

// stressReport summarizes one run
type stressReport struct {
	RunID              string
	Submitted          int64
	Rejected           int64
	Completed          int64
	Failed             int64
	MaxRunning         int64
	MaxSubmitWait      time.Duration
	LateSubmitRejected bool
	Elapsed            time.Duration
}

func (r *stressReport) print(out io.Writer) {
	fmt.Fprintf(out, "run %s\n", r.RunID)
	fmt.Fprintf(out, "  submitted:            %d\n", r.Submitted)
	fmt.Fprintf(out, "  rejected:             %d\n", r.Rejected)
	fmt.Fprintf(out, "  completed:            %d\n", r.Completed)
	fmt.Fprintf(out, "  failed:               %d\n", r.Failed)
	fmt.Fprintf(out, "  max running:          %d\n", r.MaxRunning)
	fmt.Fprintf(out, "  max submit wait:      %v\n", r.MaxSubmitWait)
	fmt.Fprintf(out, "  late submit rejected: %t\n", r.LateSubmitRejected)
	fmt.Fprintf(out, "  elapsed:              %v\n", r.Elapsed)
}

// stressCounters is shared by every task of a run
type stressCounters struct {
	running    atomic.Int64
	maxRunning atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
}

func (c *stressCounters) enter() int64 {
	n := c.running.Add(1)
	for {
		cur := c.maxRunning.Load()
		if n <= cur || c.maxRunning.CompareAndSwap(cur, n) {
			return n
		}
	}
}

// workDuration is how long task id sleeps
func workDuration(cfg config.StressConfig, id int) time.Duration {
	return cfg.BaseWork + time.Duration(id%cfg.WorkSteps)*cfg.WorkStep
}

func newStressTask(id int, d time.Duration, c *stressCounters, log *slog.Logger) types.Task {
	return worker.NewBasicTaskWithID(fmt.Sprintf("task-%d", id), func(ctx context.Context) error {
		running := c.enter()
		log.Info("task started",
			slog.Int("task", id),
			slog.Int64("running", running))

		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			c.running.Add(-1)
			c.failed.Add(1)
			return ctx.Err()
		}

		running = c.running.Add(-1)
		completed := c.completed.Add(1)
		log.Info("task done",
			slog.Int("task", id),
			slog.Int64("running", running),
			slog.Int64("completed", completed))
		return nil
	})
}

// runStress submits cfg.Tasks tasks from cfg.Producers goroutines, shuts the
// pool down, checks that a late submission is rejected and waits for the
// drain. It fails unless every accepted task completed.
func runStress(ctx context.Context, cfg config.StressConfig, pool *worker.FixedWorkerPool, log *slog.Logger) (*stressReport, error) {
	report := &stressReport{}
	counters := &stressCounters{}
	start := time.Now()

	var submitted, rejected atomic.Int64
	var maxWait atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.Producers; p++ {
		g.Go(func() error {
			for id := p; id < cfg.Tasks; id += cfg.Producers {
				task := newStressTask(id, workDuration(cfg, id), counters, log)

				submitStart := time.Now()
				err := pool.SubmitContext(gctx, task)
				waited := time.Since(submitStart)
				if err != nil {
					rejected.Add(1)
					return fmt.Errorf("submit %s: %w", task.ID(), err)
				}
				submitted.Add(1)

				for {
					cur := maxWait.Load()
					if int64(waited) <= cur || maxWait.CompareAndSwap(cur, int64(waited)) {
						break
					}
				}
				log.Info("task submitted",
					slog.String("task_id", task.ID()),
					slog.Duration("waited", waited))
			}
			return nil
		})
	}
	submitErr := g.Wait()

	pool.Shutdown()

	lateErr := pool.SubmitFunc(func() {})
	report.LateSubmitRejected = errors.Is(lateErr, types.ErrRejected)
	if report.LateSubmitRejected {
		log.Info("submission after shutdown rejected", slog.Any("error", lateErr))
	} else {
		log.Error("submission after shutdown was accepted")
	}

	pool.AwaitTermination()

	report.Submitted = submitted.Load()
	report.Rejected = rejected.Load()
	report.Completed = counters.completed.Load()
	report.Failed = counters.failed.Load()
	report.MaxRunning = counters.maxRunning.Load()
	report.MaxSubmitWait = time.Duration(maxWait.Load())
	report.Elapsed = time.Since(start)

	log.Info("stress run finished",
		slog.Int64("submitted", report.Submitted),
		slog.Int64("completed", report.Completed),
		slog.Duration("elapsed", report.Elapsed))

	switch {
	case submitErr != nil:
		return report, fmt.Errorf("stress run interrupted: %w", submitErr)
	case !report.LateSubmitRejected:
		return report, fmt.Errorf("pool accepted a task after shutdown")
	case report.Completed != report.Submitted:
		return report, fmt.Errorf("completed %d of %d accepted tasks", report.Completed, report.Submitted)
	}
	return report, nil
}
