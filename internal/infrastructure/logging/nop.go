package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop() Logger {
	return NewWithCore(zapcore.NewNopCore())
}

// NewWithCore builds a zap-backed Logger on an existing core.
func NewWithCore(core zapcore.Core) Logger {
	return &zapLogger{
		cfg:    &LoggerConfig{},
		logger: zap.New(core).Sugar(),
	}
}
