package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface
	globalMu     sync.RWMutex
)

// InitLogger installs the process-wide logger. Calling it again replaces the
// previous logger and closes its outputs.
func InitLogger(opts LoggerOptions) error {
	logger, err := NewLogger(opts)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger swaps the process-wide logger; nil disables logging.
func SetLogger(logger LoggerInterface) {
	globalMu.Lock()
	previous := globalLogger
	globalLogger = logger
	globalMu.Unlock()

	if previous != nil && previous != logger {
		_ = previous.Close()
	}
}

func current() LoggerInterface {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithFields returns the global logger with fields attached. Before
// InitLogger it returns a logger that drops everything.
func WithFields(fields ...Field) LoggerInterface {
	if l := current(); l != nil {
		return l.With(fields...)
	}
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)          {}
func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Info(string, ...Field)           {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Warn(string, ...Field)           {}
func (nopLogger) Warnf(string, ...interface{})    {}
func (nopLogger) Error(string, ...Field)          {}
func (nopLogger) Errorf(string, ...interface{})   {}
func (n nopLogger) With(...Field) LoggerInterface { return n }
func (nopLogger) SetLevel(LogLevel)               {}
func (nopLogger) AddOutput(Output)                {}
func (nopLogger) Close() error                    { return nil }

// LogInfo convenience functions for logging
func LogInfo(msg string) {
	if l := current(); l != nil {
		l.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Infof(format, args...)
	}
}

func LogDebug(msg string) {
	if l := current(); l != nil {
		l.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debugf(format, args...)
	}
}

func LogWarn(msg string) {
	if l := current(); l != nil {
		l.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warnf(format, args...)
	}
}

func LogError(msg string) {
	if l := current(); l != nil {
		l.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Errorf(format, args...)
	}
}
