// Package logging builds the console logger used by every tvbackup command
// and ties a run-scoped error counter to it.
package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorCounter tallies log entries written at ERROR severity or above during
// a single command invocation. It is read once, after the run, to decide the
// process exit status: a backup that wrote its file but skipped trades still
// exits non-zero.
type ErrorCounter struct {
	n atomic.Int64
}

// Count returns the number of ERROR-or-above entries written so far.
func (c *ErrorCounter) Count() int64 {
	return c.n.Load()
}

func (c *ErrorCounter) hook(entry zapcore.Entry) error {
	if entry.Level >= zapcore.ErrorLevel {
		c.n.Add(1)
	}
	return nil
}

// New creates a console logger for one command invocation. With debug enabled
// the level drops to DEBUG, which is what --debug and --debug-http map to.
func New(debug bool) (*zap.Logger, *ErrorCounter, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	logger, counter := Attach(logger)
	return logger, counter, nil
}

// Attach wires a fresh ErrorCounter into an existing logger. The counter only
// sees entries the logger actually writes, so anything below the configured
// level never affects it.
func Attach(l *zap.Logger) (*zap.Logger, *ErrorCounter) {
	counter := &ErrorCounter{}
	return l.WithOptions(zap.Hooks(counter.hook)), counter
}
