package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviesearch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", "INFO")

	logger.Debug("hidden")
	logger.Info("fetched", "query", "batman", "page", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fetched", entry["msg"])
	assert.Equal(t, "batman", entry["query"])
	assert.EqualValues(t, 2, entry["page"])
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "console", "DEBUG")

	logger.With("component", "query").WithGroup("req").Debug("cache miss", "key", `["movies","popular"]`)

	out := buf.String()
	assert.Contains(t, out, "cache miss")
	assert.Contains(t, out, "component=query")
	assert.NotContains(t, out, "req.component")
	assert.Contains(t, out, "req.key=")
}

func TestZerologHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "console", "WARN")

	logger.Info("quiet")
	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}

func TestSetupLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "moviesearch.log")
	logger, closer, err := SetupLogger(&config.LoggingConfig{File: path, Level: "INFO", Format: "json"})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
