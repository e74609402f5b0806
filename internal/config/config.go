// Package config holds the configuration of the pool tools: pool sizing,
// logging, metrics and the stress run, loaded from flags, GOPOOL_* env vars
// and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jzx17/gopool/internal/logger"
	"github.com/jzx17/gopool/pkg/worker"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. GOPOOL_POOL_WORKERS
const EnvPrefix = "GOPOOL"

// PoolConfig sizes the worker pool
type PoolConfig struct {
	Workers       int           `yaml:"workers" mapstructure:"workers"`
	QueueSize     int           `yaml:"queue-size" mapstructure:"queue-size"`
	SubmitTimeout time.Duration `yaml:"submit-timeout" mapstructure:"submit-timeout"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Address to serve /metrics on; empty disables the endpoint
	Address  string `yaml:"address" mapstructure:"address"`
	PoolName string `yaml:"pool-name" mapstructure:"pool-name"`
}

// StressConfig describes the synthetic load of a stress run. Task i sleeps
// BaseWork + (i % WorkSteps) * WorkStep.
type StressConfig struct {
	Tasks     int           `yaml:"tasks" mapstructure:"tasks"`
	Producers int           `yaml:"producers" mapstructure:"producers"`
	BaseWork  time.Duration `yaml:"base-work" mapstructure:"base-work"`
	WorkStep  time.Duration `yaml:"work-step" mapstructure:"work-step"`
	WorkSteps int           `yaml:"work-steps" mapstructure:"work-steps"`
}

// Config is the full tool configuration
type Config struct {
	Pool    PoolConfig    `yaml:"pool" mapstructure:"pool"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Stress  StressConfig  `yaml:"stress" mapstructure:"stress"`
}

// Default returns the configuration of the classic demo: 3 workers, a queue
// of 10 and 30 tasks of 100-180ms.
func Default() Config {
	return Config{
		Pool: PoolConfig{
			Workers:   3,
			QueueSize: worker.DefaultQueueSize,
		},
		Logging: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			PoolName: "poolstress",
		},
		Stress: StressConfig{
			Tasks:     30,
			Producers: 1,
			BaseWork:  100 * time.Millisecond,
			WorkStep:  20 * time.Millisecond,
			WorkSteps: 5,
		},
	}
}

// flagKeys maps flag names to config keys
var flagKeys = []struct{ key, flag string }{
	{"pool.workers", "workers"},
	{"pool.queue-size", "queue-size"},
	{"pool.submit-timeout", "submit-timeout"},
	{"logging.severity", "log-severity"},
	{"logging.format", "log-format"},
	{"logging.file-path", "log-file"},
	{"metrics.address", "metrics-address"},
	{"stress.tasks", "tasks"},
	{"stress.producers", "producers"},
	{"stress.base-work", "base-work"},
	{"stress.work-step", "work-step"},
	{"stress.work-steps", "work-steps"},
}

// BindFlags registers the configuration flags on fs and returns a viper
// instance with every flag bound to its config key.
func BindFlags(fs *pflag.FlagSet) (*viper.Viper, error) {
	d := Default()

	fs.IntP("workers", "w", d.Pool.Workers, "Number of pool workers.")
	fs.IntP("queue-size", "q", d.Pool.QueueSize, "Capacity of the task queue.")
	fs.Duration("submit-timeout", d.Pool.SubmitTimeout, "Maximum wait for queue capacity per submit; 0 waits forever.")
	fs.String("log-severity", d.Logging.Severity, "Log severity: TRACE, DEBUG, INFO, WARNING, ERROR or OFF.")
	fs.String("log-format", d.Logging.Format, "Log format: text or json.")
	fs.String("log-file", d.Logging.FilePath, "Write logs to this rotated file instead of stderr.")
	fs.String("metrics-address", d.Metrics.Address, "Serve Prometheus metrics on this address, e.g. :9090.")
	fs.IntP("tasks", "n", d.Stress.Tasks, "Number of tasks to submit.")
	fs.Int("producers", d.Stress.Producers, "Number of concurrent submitting goroutines.")
	fs.Duration("base-work", d.Stress.BaseWork, "Base duration of each task.")
	fs.Duration("work-step", d.Stress.WorkStep, "Extra duration per work step.")
	fs.Int("work-steps", d.Stress.WorkSteps, "Number of distinct task durations.")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, k := range flagKeys {
		if err := v.BindPFlag(k.key, fs.Lookup(k.flag)); err != nil {
			return nil, fmt.Errorf("error while binding flag %s: %w", k.flag, err)
		}
	}

	// keys without a flag
	v.SetDefault("logging.max-size-mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max-backups", d.Logging.MaxBackups)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("metrics.pool-name", d.Metrics.PoolName)

	return v, nil
}

// Load reads file (if not empty) into v and unmarshals the merged result.
// Explicit flags win over env vars, which win over the file.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error while reading the config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("error while unmarshaling config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values that cannot be defaulted
func (c Config) Validate() error {
	if c.Pool.Workers <= 0 {
		return fmt.Errorf("pool.workers must be positive, got %d", c.Pool.Workers)
	}
	if c.Pool.QueueSize <= 0 {
		return fmt.Errorf("pool.queue-size must be positive, got %d", c.Pool.QueueSize)
	}
	if c.Pool.SubmitTimeout < 0 {
		return fmt.Errorf("pool.submit-timeout must not be negative, got %v", c.Pool.SubmitTimeout)
	}
	if err := logger.SetLoggingLevel(c.Logging.Severity, new(slog.LevelVar)); err != nil {
		return fmt.Errorf("logging.severity: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Stress.Tasks < 0 {
		return fmt.Errorf("stress.tasks must not be negative, got %d", c.Stress.Tasks)
	}
	if c.Stress.Producers <= 0 {
		return fmt.Errorf("stress.producers must be positive, got %d", c.Stress.Producers)
	}
	if c.Stress.WorkSteps <= 0 {
		return fmt.Errorf("stress.work-steps must be positive, got %d", c.Stress.WorkSteps)
	}
	return nil
}

// WorkerPoolConfig returns the worker pool configuration for c
func (c Config) WorkerPoolConfig(log *slog.Logger) *worker.FixedWorkerPoolConfig {
	pc := worker.DefaultFixedWorkerPoolConfig()
	pc.PoolSize = c.Pool.Workers
	pc.QueueSize = c.Pool.QueueSize
	pc.SubmitTimeout = c.Pool.SubmitTimeout
	pc.Logger = log
	return pc
}

// YAML renders c as a config file
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
