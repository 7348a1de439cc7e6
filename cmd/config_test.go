package cmd

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "bouncer", configBaseName)
	assert.Equal(t, "bouncer.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "watch.dir", watchDirKey)
	assert.Equal(t, "watch.debounce_delay", watchDebounceDelayKey)
	assert.Equal(t, "queues.event_capacity", eventCapacityKey)
	assert.Equal(t, "ignore.patterns", ignorePatternsKey)
	assert.Equal(t, 2*time.Second, defaultDebounceDelay)
	assert.Equal(t, time.Second, defaultPollInterval)
	assert.Equal(t, 5000, defaultMaxPendingChanges)
	assert.Equal(t, 1000, defaultEventCapacity)
	assert.Equal(t, 1_000_000, defaultFilesizeMaxSize)
	assert.Equal(t, "BOUNCER", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestDefaultIgnorePatterns(t *testing.T) {
	assert.Contains(t, defaultIgnorePatterns, ".git")
	assert.Contains(t, defaultIgnorePatterns, "node_modules")
	assert.Contains(t, defaultIgnorePatterns, "__pycache__")
	assert.Contains(t, defaultIgnorePatterns, ".bouncer")
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  slog.Level
	}{
		{"empty uses default", "", slog.LevelWarn},
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"numeric", "-4", slog.LevelDebug},
		{"mixed case", "DeBuG", slog.LevelDebug},
		{"unknown uses default", "loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}
