package logging

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Options{Dir: dir, Level: "debug", Fields: map[string]string{"session": "s-1"}})
	require.NoError(t, err)
	logger.Debug("hello", zap.String("component", "src/a.rs"))
	logger.Info("second")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "src/a.rs", entry["component"])
	assert.Equal(t, "s-1", entry["session"])
	assert.Contains(t, entry, "ts")
}

func TestNewAppends(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		logger, err := New(Options{Dir: dir})
		require.NoError(t, err)
		logger.Info("run")
		logger.Debug("filtered")
		require.NoError(t, logger.Close())
	}
	data, err := os.ReadFile(dir + "/" + FileName)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), `"msg":"run"`))
	assert.NotContains(t, string(data), "filtered")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)
	_, err = ParseLevel("loud")
	require.Error(t, err)
	_, err = New(Options{Dir: t.TempDir(), Level: "loud"})
	require.Error(t, err)
}

func TestNopIsSafe(t *testing.T) {
	logger := Nop()
	logger.Info("ignored")
	assert.Equal(t, "", logger.Path())
	assert.NoError(t, logger.Close())
}
