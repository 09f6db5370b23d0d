package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger, counter, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, counter)
	assert.Equal(t, int64(0), counter.Count())
}

func TestCounterCountsErrors(t *testing.T) {
	core, _ := observer.New(zapcore.DebugLevel)
	logger, counter := Attach(zap.New(core))

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	assert.Equal(t, int64(0), counter.Count())

	logger.Error("first")
	logger.Error("second")
	assert.Equal(t, int64(2), counter.Count())
}

func TestCounterIgnoresSuppressedEntries(t *testing.T) {
	// Entries below the core's level are never written, so they must not
	// count either.
	core, logs := observer.New(zapcore.ErrorLevel)
	logger, counter := Attach(zap.New(core))

	logger.Info("suppressed")
	logger.Error("written")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(1), counter.Count())
}

func TestCounterSeesChildLoggers(t *testing.T) {
	core, _ := observer.New(zapcore.DebugLevel)
	logger, counter := Attach(zap.New(core))

	logger.With(zap.String("component", "backup")).Error("child error")
	assert.Equal(t, int64(1), counter.Count())
}
