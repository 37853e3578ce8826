package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/dormdesk/pkg/config"
)

func TestLoggerFunctions_NoNilPointers(t *testing.T) {
	logger = nil

	assert.NotPanics(t, func() {
		Debug("test debug", "key", "value")
		Info("test info", "key", "value")
		Warn("test warn", "key", "value")
		Error("test error", "key", "value")
	})
}

func TestSetOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.InfoLevel)

	Debug("hidden", "k", 1)
	Info("session transition", "from", "loading", "to", "authenticated")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "session transition")
	assert.Contains(t, out, "to=authenticated")
}

func TestInitWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Init(filepath.Join(dir, "config.toml")))

	logFile := filepath.Join(dir, "test.log")
	config.Set("log.file", logFile)

	Init(true)
	Debug("verbose line", "n", 1)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verbose line")
	assert.Equal(t, log.DebugLevel, GetLogger().GetLevel())
}
