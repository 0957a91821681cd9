package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestSetup_FileLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "docdex.log")

	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: logPath, WriteToStderr: false})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("test_event", slog.String("component", "logging_test"))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test_event")
	assert.Contains(t, string(data), "logging_test")
}

func TestSetupDefault_InstallsProcessLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logPath := filepath.Join(t.TempDir(), "docdex.log")
	cleanup, err := SetupDefault(Config{Level: "info", FilePath: logPath, WriteToStderr: false})
	require.NoError(t, err)

	slog.Info("default_event", slog.String("component", "logging_test"))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_event")
}

func TestSetup_NoFileStillLogs(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, logger)
}
