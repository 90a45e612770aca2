package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	require.NoError(t, Init("not-a-level", false))
	require.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
	require.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
}

func TestInitDebugDevelopment(t *testing.T) {
	require.NoError(t, Init("debug", true))
	require.NotNil(t, WithModule("scheduler"))
	require.True(t, Logger().Core().Enabled(zapcore.DebugLevel))
}
