package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jzx17/gopool/internal/config"
	"github.com/jzx17/gopool/internal/logger"
	"github.com/jzx17/gopool/internal/metrics"
	"github.com/jzx17/gopool/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Submit the configured load, shut down and verify the drain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log, closer, err := logger.New(opts.cfg.Logging)
			if err != nil {
				return fmt.Errorf("error while creating logger: %w", err)
			}
			defer closer.Close()

			return runPool(ctx, opts.cfg, log, cmd.OutOrStdout())
		},
	}
}

// runPool builds the pool described by cfg, runs the stress load against it
// and prints a summary to out.
func runPool(ctx context.Context, cfg config.Config, log *slog.Logger, out io.Writer) error {
	runID := uuid.NewString()
	log = log.With(slog.String("run_id", runID))

	pc := cfg.WorkerPoolConfig(log)
	pc.BaseContext = ctx
	pool, err := worker.NewFixedWorkerPool(pc)
	if err != nil {
		return fmt.Errorf("error while creating pool: %w", err)
	}
	defer pool.Close()

	if cfg.Metrics.Address != "" {
		stopMetrics, err := serveMetrics(cfg.Metrics, pool, log)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	report, runErr := runStress(ctx, cfg.Stress, pool, log)
	report.RunID = runID
	report.print(out)
	return runErr
}

// serveMetrics exposes the pool collector on addr until the returned stop
// function is called.
func serveMetrics(cfg config.MetricsConfig, pool *worker.FixedWorkerPool, log *slog.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewPoolCollector(cfg.PoolName, pool)); err != nil {
		return nil, fmt.Errorf("error while registering pool collector: %w", err)
	}
	reg.MustRegister(collectors.NewGoCollector())

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("error while listening on %s: %w", cfg.Address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	log.Info("serving metrics", slog.String("address", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
