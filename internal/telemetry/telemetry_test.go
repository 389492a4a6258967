package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReplyDesk/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHandler_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slog.New(NewHandler(&buf, config.LogConfig{Level: "info", Format: "json"})).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	slog.New(NewHandler(&buf, config.LogConfig{Level: "info", Format: "text"})).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	slog.New(NewHandler(&buf, config.LogConfig{Level: "warn", Format: "json"})).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestInitLogger_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, closer, err := InitLogger(config.LogConfig{Level: "info", Format: "json", Dir: dir})
	require.NoError(t, err)
	logger.Info("started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "replydesk.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")
}

func TestInitTelemetry_Disabled(t *testing.T) {
	t.Parallel()

	tracer, meter, cleanup, err := InitTelemetry(context.Background(), config.TelemetryConfig{}, t.TempDir())
	require.NoError(t, err)
	defer cleanup()

	_, span := tracer.Start(context.Background(), "noop")
	span.End()
	_, err = meter.Int64Counter("noop")
	assert.NoError(t, err)
}
