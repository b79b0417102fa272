package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	for level, want := range map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	} {
		logger, err := NewLogger(level, "json", "dashboard_api")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(want), level)
		assert.False(t, logger.Core().Enabled(want-1), level)
	}
}

func TestNewLoggerConsole(t *testing.T) {
	logger, err := NewLogger("info", "console", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
