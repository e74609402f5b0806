// Package metrics exports worker pool statistics to Prometheus
package metrics

import (
	"github.com/jzx17/gopool/pkg/types"
	"github.com/jzx17/gopool/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gopool"

// StatsSource is implemented by *worker.FixedWorkerPool
type StatsSource interface {
	Stats() types.WorkerPoolStats
	GetWorkerStats() []worker.WorkerStats
}

// PoolCollector reads a snapshot of pool statistics on every scrape
type PoolCollector struct {
	source StatsSource

	poolSize       *prometheus.Desc
	queueLength    *prometheus.Desc
	queueCapacity  *prometheus.Desc
	activeWorkers  *prometheus.Desc
	state          *prometheus.Desc
	submitted      *prometheus.Desc
	rejected       *prometheus.Desc
	completed      *prometheus.Desc
	failed         *prometheus.Desc
	submitWait     *prometheus.Desc
	executionTime  *prometheus.Desc
	workerTasks    *prometheus.Desc
	workerFailures *prometheus.Desc
}

// NewPoolCollector creates a collector for source; every series carries a
// pool=name label.
func NewPoolCollector(name string, source StatsSource) *PoolCollector {
	labels := prometheus.Labels{"pool": name}
	desc := func(metric, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", metric), help, variable, labels)
	}

	return &PoolCollector{
		source:         source,
		poolSize:       desc("workers", "Number of workers in the pool."),
		queueLength:    desc("queue_length", "Tasks waiting in the queue."),
		queueCapacity:  desc("queue_capacity", "Capacity of the task queue."),
		activeWorkers:  desc("active_workers", "Workers currently executing a task."),
		state:          desc("state", "Pool lifecycle state (0 accepting, 1 draining, 2 terminated)."),
		submitted:      desc("tasks_submitted_total", "Tasks accepted by Submit."),
		rejected:       desc("tasks_rejected_total", "Submissions rejected by the pool."),
		completed:      desc("tasks_completed_total", "Tasks that finished without error."),
		failed:         desc("tasks_failed_total", "Tasks that returned an error or panicked."),
		submitWait:     desc("submit_wait_seconds_total", "Time submitters spent blocked on a full queue."),
		executionTime:  desc("task_execution_seconds_total", "Time spent executing tasks."),
		workerTasks:    desc("worker_tasks_processed_total", "Tasks completed per worker.", "worker"),
		workerFailures: desc("worker_tasks_failed_total", "Tasks failed per worker.", "worker"),
	}
}

// Describe implements prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.poolSize
	ch <- c.queueLength
	ch <- c.queueCapacity
	ch <- c.activeWorkers
	ch <- c.state
	ch <- c.submitted
	ch <- c.rejected
	ch <- c.completed
	ch <- c.failed
	ch <- c.submitWait
	ch <- c.executionTime
	ch <- c.workerTasks
	ch <- c.workerFailures
}

// Collect implements prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	gauge(c.poolSize, float64(s.PoolSize))
	gauge(c.queueLength, float64(s.QueueSize))
	gauge(c.queueCapacity, float64(s.QueueCapacity))
	gauge(c.activeWorkers, float64(s.ActiveWorkers))
	gauge(c.state, float64(s.State))
	counter(c.submitted, float64(s.TotalSubmitted))
	counter(c.rejected, float64(s.TotalRejected))
	counter(c.completed, float64(s.TotalCompleted))
	counter(c.failed, float64(s.TotalFailed))
	counter(c.submitWait, s.TotalSubmitWait.Seconds())
	counter(c.executionTime, s.TotalExecutionTime.Seconds())

	for _, ws := range c.source.GetWorkerStats() {
		counter(c.workerTasks, float64(ws.TotalProcessed), ws.Name)
		counter(c.workerFailures, float64(ws.TotalFailed), ws.Name)
	}
}

var _ prometheus.Collector = (*PoolCollector)(nil)
