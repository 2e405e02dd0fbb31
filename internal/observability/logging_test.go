package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/coinclash/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, "clashserver")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console"}, "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_DebugEnabled(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json"}, "simulate")
	require.NoError(t, err)
	assert.NotNil(t, logger.Check(zapcore.DebugLevel, "rng draw"))
}

func TestNewLogger_InfoSuppressesDebug(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, "simulate")
	require.NoError(t, err)
	assert.Nil(t, logger.Check(zapcore.DebugLevel, "rng draw"))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "x")
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "x")
	assert.Error(t, err)
}
