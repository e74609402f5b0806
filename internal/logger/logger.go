// Package logger builds the slog.Logger used by the pool and its tools
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severities accepted by SetLoggingLevel
const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

const (
	// LevelTrace is below slog.LevelDebug
	LevelTrace = slog.Level(-8)
	// LevelOff is above every level that is ever logged
	LevelOff = slog.Level(12)
)

// Config describes where and how to log
type Config struct {
	// Severity is one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF
	Severity string `yaml:"severity" mapstructure:"severity"`

	// Format is "text" or "json"
	Format string `yaml:"format" mapstructure:"format"`

	// FilePath sends logs to a rotated file instead of stderr
	FilePath string `yaml:"file-path" mapstructure:"file-path"`

	// Rotation settings, used only with FilePath
	MaxSizeMB  int  `yaml:"max-size-mb" mapstructure:"max-size-mb"`
	MaxBackups int  `yaml:"max-backups" mapstructure:"max-backups"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig logs INFO as text to stderr
func DefaultConfig() Config {
	return Config{
		Severity:   INFO,
		Format:     "text",
		MaxSizeMB:  100,
		MaxBackups: 3,
	}
}

// SetLoggingLevel sets programLevel from a severity string
func SetLoggingLevel(severity string, programLevel *slog.LevelVar) error {
	switch strings.ToUpper(severity) {
	case TRACE:
		programLevel.Set(LevelTrace)
	case DEBUG:
		programLevel.Set(slog.LevelDebug)
	case INFO, "":
		programLevel.Set(slog.LevelInfo)
	case WARNING:
		programLevel.Set(slog.LevelWarn)
	case ERROR:
		programLevel.Set(slog.LevelError)
	case OFF:
		programLevel.Set(LevelOff)
	default:
		return fmt.Errorf("unknown log severity %q", severity)
	}
	return nil
}

// New builds a logger from cfg. The returned closer releases the log file
// and must be called when logging is done.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		out, closer = lj, lj
	}

	logger, err := NewWithWriter(cfg, out)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return logger, closer, nil
}

// NewWithWriter builds a logger from cfg writing to out, ignoring FilePath
func NewWithWriter(cfg Config, out io.Writer) (*slog.Logger, error) {
	programLevel := new(slog.LevelVar)
	if err := SetLoggingLevel(cfg.Severity, programLevel); err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:       programLevel,
		ReplaceAttr: replaceLevelName,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text", "":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// replaceLevelName prints TRACE instead of DEBUG-4
func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue(TRACE)
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
