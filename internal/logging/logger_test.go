package logging_test

import (
	"testing"

	"github.com/serroba/shortlink/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("builds json logger at the requested level", func(t *testing.T) {
		logger, err := logging.New(logging.FormatJSON, "warn")

		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("builds console logger", func(t *testing.T) {
		logger, err := logging.New(logging.FormatConsole, "debug")

		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := logging.New("xml", "info")

		assert.Error(t, err)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := logging.New(logging.FormatJSON, "loud")

		assert.Error(t, err)
	})
}
