package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	z := zap.New(core)
	return &Logger{zap: z, sugar: z.Sugar()}, logs
}

func TestWithContext(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	log.WithContext(ctx).Info("task moved")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestWithContextWithoutValues(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	assert.Same(t, log, log.WithContext(context.Background()))
	log.WithContext(context.Background()).Info("plain")
	assert.Empty(t, logs.All()[0].ContextMap())
}

func TestDomainFields(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)

	log.WithTaskID("7").WithColumn("review").Debug("loaded")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "7", fields["task_id"])
	assert.Equal(t, "review", fields["column"])
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kanboard.log")
	log, err := NewLogger(LoggingConfig{Level: "warn", Format: "json", OutputPath: path})
	require.NoError(t, err)

	assert.False(t, log.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Zap().Core().Enabled(zapcore.WarnLevel))

	// unknown levels fall back to info
	log, err = NewLogger(LoggingConfig{Level: "loud", Format: "text", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.True(t, log.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Zap().Core().Enabled(zapcore.DebugLevel))
}

func TestSetDefaultIsNotReplacedByDefault(t *testing.T) {
	log, _ := observed(zapcore.InfoLevel)
	SetDefault(log)
	t.Cleanup(func() { SetDefault(Nop()) })

	assert.Same(t, log, Default())
}
