package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewDefaultsLevelAndEncoding(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestErrorsCarryNoStacktrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reshape.log")
	l, err := New(Config{Level: "warn", Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Error("reshape failed", zap.String("column", "Happy"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"column":"Happy"`)
	assert.NotContains(t, string(data), "stacktrace")
}

func TestGetFallsBackToDefault(t *testing.T) {
	Set(nil)
	l := Get()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestWithContextAddsRunFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := WithRun(context.Background(), "run-1", "resultado.csv")
	ctx = WithStage(ctx, "melt")
	WithContext(ctx).Info("melted")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "resultado.csv", fields["input"])
	assert.Equal(t, "melt", fields["stage"])
}
