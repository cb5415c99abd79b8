// Package logging provides the leveled logger used throughout genkeys.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level selects the minimum severity that is emitted.
type Level int

const (
	// LevelWarn is the default: only warnings and errors.
	LevelWarn Level = iota
	// LevelInfo adds informational progress messages (--verbose).
	LevelInfo
	// LevelDebug adds diagnostic detail (--debug).
	LevelDebug
	// LevelError suppresses everything below error. Used by the
	// selector-output mode so only the selector reaches stdout.
	LevelError
)

// Logger wraps a logrus logger with the level vocabulary the tool uses.
type Logger struct {
	l *logrus.Logger
}

// New creates a logger writing to stderr at the given level.
func New(level Level) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	switch level {
	case LevelDebug:
		l.SetLevel(logrus.DebugLevel)
	case LevelInfo:
		l.SetLevel(logrus.InfoLevel)
	case LevelError:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.WarnLevel)
	}
	return &Logger{l: l}
}

// SetOutput redirects log output, primarily for tests.
func (lg *Logger) SetOutput(w io.Writer) {
	lg.l.SetOutput(w)
}

// Debug logs a diagnostic message.
func (lg *Logger) Debug(format string, args ...interface{}) {
	lg.l.Debugf(format, args...)
}

// Info logs a progress message.
func (lg *Logger) Info(format string, args ...interface{}) {
	lg.l.Infof(format, args...)
}

// Warn logs an advisory problem that does not affect the run outcome.
func (lg *Logger) Warn(format string, args ...interface{}) {
	lg.l.Warnf(format, args...)
}

// Error logs a domain-scoped failure.
func (lg *Logger) Error(format string, args ...interface{}) {
	lg.l.Errorf(format, args...)
}

// Critical logs a run-aborting failure. The caller is responsible for
// terminating with a non-zero exit status.
func (lg *Logger) Critical(format string, args ...interface{}) {
	lg.l.WithField("fatal", true).Errorf(format, args...)
}
