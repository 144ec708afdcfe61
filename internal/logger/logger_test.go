package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	log, err := New("prod", "warn")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = New("dev", "")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = New("dev", "chatty")
	require.Error(t, err)
}

func TestRedacted(t *testing.T) {
	require.Equal(t, "", Redacted(""))
	require.Equal(t, "[REDACTED]", Redacted("abcd"))
	require.Equal(t, "[REDACTED]wxyz", Redacted("xoxb-123-wxyz"))
}
