package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "leasemeter.log")
	var console bytes.Buffer

	log, err := New(&Config{Level: "debug", File: file}, WithConsole(&console))
	require.NoError(t, err)

	log.Debug("Router inspected", zap.String("router", "edge-1"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Router inspected"`)
	assert.Contains(t, string(data), `"router":"edge-1"`)
	assert.Contains(t, string(data), `"level":"DEBUG"`)

	assert.Contains(t, console.String(), "Router inspected")
	assert.NotContains(t, console.String(), `"msg"`, "console output is not JSON")
}

func TestNewSyncOnStderr(t *testing.T) {
	log, err := New(&Config{Level: "info"})
	require.NoError(t, err)

	log.Info("Run started")
	assert.NoError(t, log.Sync())
}

func TestConsoleSinkSyncPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	sink := consoleSink{w}
	_, err = sink.Write([]byte("line\n"))
	require.NoError(t, err)
	assert.NoError(t, sink.Sync(), "pipes cannot be synced")
}

func TestForRun(t *testing.T) {
	var console bytes.Buffer
	log, err := New(nil, WithConsole(&console))
	require.NoError(t, err)

	runLog, id := ForRun(log)
	assert.Len(t, id, 36)

	runLog.Info("Inventory finished")
	assert.Contains(t, console.String(), id)

	_, other := ForRun(log)
	assert.NotEqual(t, id, other)
}

func TestNewLevel(t *testing.T) {
	log, err := New(&Config{Level: "warn"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = New(nil)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{MaxSize: 10}
	out := cfg.SetDefaults()

	assert.Equal(t, "info", out.Level)
	assert.Equal(t, 10, out.MaxSize)
	assert.Equal(t, 3, out.MaxBackups)
	assert.Equal(t, 28, out.MaxAge)
	assert.Empty(t, cfg.Level, "original config is left untouched")
}

func TestGetZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, getZapLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, getZapLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, getZapLevel("unknown"))
}
