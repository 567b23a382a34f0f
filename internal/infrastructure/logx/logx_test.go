package logx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	SetLevel("debug")
	require.True(t, L().Core().Enabled(zapcore.DebugLevel))

	SetLevel("warn")
	require.False(t, L().Core().Enabled(zapcore.InfoLevel))
	require.True(t, L().Core().Enabled(zapcore.WarnLevel))
}

func TestRunID(t *testing.T) {
	_, ok := RunID(context.Background())
	require.False(t, ok)

	ctx := WithRunID(context.Background(), "run-1")
	id, ok := RunID(ctx)
	require.True(t, ok)
	require.Equal(t, "run-1", id)
	require.NotNil(t, WithFields(ctx))
}
