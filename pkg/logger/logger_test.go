package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestFromContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, EnvironmentKey, "prod")
	ctx = context.WithValue(ctx, StageKey, "expander")

	FromContext(ctx, base).Debug("expanded")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "prod", fields["environment"])
	assert.Equal(t, "expander", fields["stage"])
}

func TestSetReplacesGlobal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	Set(zap.New(core))
	Info("hello", zap.String("k", "v"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}
