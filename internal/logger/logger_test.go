package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLoggingLevel(t *testing.T) {
	tests := []struct {
		severity string
		expected slog.Level
	}{
		{TRACE, LevelTrace},
		{DEBUG, slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{INFO, slog.LevelInfo},
		{"", slog.LevelInfo},
		{WARNING, slog.LevelWarn},
		{ERROR, slog.LevelError},
		{OFF, LevelOff},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			programLevel := new(slog.LevelVar)
			require.NoError(t, SetLoggingLevel(tt.severity, programLevel))
			assert.Equal(t, tt.expected, programLevel.Level())
		})
	}

	assert.Error(t, SetLoggingLevel("LOUD", new(slog.LevelVar)))
}

func TestNewWithWriter_TextFiltersBySeverity(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Severity: WARNING, Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("worker", "pool-worker-0"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "worker=pool-worker-0")
}

func TestNewWithWriter_Trace(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Severity: TRACE}, &buf)
	require.NoError(t, err)

	logger.Log(context.Background(), LevelTrace, "very verbose")
	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestNewWithWriter_Off(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Severity: OFF}, &buf)
	require.NoError(t, err)

	logger.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Severity: INFO, Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("task failed", slog.String("task_id", "task-1"))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "task failed", record["msg"])
	assert.Equal(t, "task-1", record["task_id"])
	assert.Equal(t, "INFO", record["level"])
}

func TestNewWithWriter_InvalidConfig(t *testing.T) {
	_, err := NewWithWriter(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter(Config{Severity: "LOUD"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.log")
	cfg := DefaultConfig()
	cfg.FilePath = path

	logger, closer, err := New(cfg)
	require.NoError(t, err)
	logger.Info("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNew_Stderr(t *testing.T) {
	logger, closer, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())

	_, _, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}
