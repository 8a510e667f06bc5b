package log

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestingLogger converts a testing.T into a logging interface to make test
// failures and verbose provide better feedback associated with test failures.
// This logging instance is safe for use from multiple threads, but in general
// callers should use different testing loggers for different tests.
func NewTestingLogger(t testing.TB) Logger {
	level := LogLevelError
	if testing.Verbose() {
		level = LogLevelDebug
	}

	return NewTestingLoggerWithLevel(t, level)
}

// NewTestingLoggerWithLevel creates a testing logger instance at a specific
// level that wraps the behavior of testing.T.Log().
func NewTestingLoggerWithLevel(t testing.TB, level string) Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		t.Fatalf("unexpected log level (%s): %v", level, err)
	}

	return &defaultLogger{
		Logger: zerolog.New(newTestingWriter(t)).Level(logLevel),
	}
}

type testingWriter struct {
	t testing.TB
}

func newTestingWriter(t testing.TB) io.Writer {
	return testingWriter{t: t}
}

func (w testingWriter) Write(bz []byte) (int, error) {
	w.t.Log(string(bz))
	return len(bz), nil
}
