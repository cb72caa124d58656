package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger.Debug("catalog scanned")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"catalog scanned"`)
	assert.Contains(t, string(raw), `"timestamp"`)
}

func TestNewLogger_LevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "verbose", OutputPath: path, Format: "console"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
}

func TestNewLogger_MultipleOutputsAndService(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.log")
	second := filepath.Join(dir, "b.log")

	logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: first + ", " + second, Format: "json", Service: "billing-assistant"})
	require.NoError(t, err)

	logger.Info("run suspended")
	require.NoError(t, logger.Sync())

	for _, path := range []string{first, second} {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"service":"billing-assistant"`)
		assert.Contains(t, string(raw), "run suspended")
	}
}

func TestNewLogger_ConsoleFileHasNoColorCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")

	logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "console"})
	require.NoError(t, err)
	logger.Warn("careful")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "WARN")
	assert.NotContains(t, string(raw), "\x1b[")
}

func TestNewLogger_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewLogger(LoggerConfig{OutputPath: filepath.Join(blocker, "nested", "x.log")})
	assert.Error(t, err)
}
