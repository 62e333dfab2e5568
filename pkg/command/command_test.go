package command

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"gitBranch=main", "query=a=b", "empty="})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"gitBranch": "main",
		"query":     "a=b",
		"empty":     "",
	}, params)

	_, err = parseParams([]string{"invalid"})
	assert.Error(t, err)

	_, err = parseParams([]string{"=value"})
	assert.Error(t, err)
}

func TestLoggerLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, loggerLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, loggerLevel("warning"))
	assert.Equal(t, slog.LevelError, loggerLevel("error"))
	assert.Equal(t, slog.LevelInfo, loggerLevel("unknown"))
}

func TestRequireInterval(t *testing.T) {
	assert.NoError(t, requireInterval("inventory.interval", time.Minute))
	assert.EqualError(t, requireInterval("inventory.interval", 0), "inventory.interval must be a positive duration, got 0s")
	assert.Error(t, requireInterval("collector.builds.interval", -time.Second))
}
