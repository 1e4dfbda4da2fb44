// Package log wraps a single process-wide logrus logger behind the same
// small call surface the original fileflip tool exposed (Debug/Error/Die/
// DieWithCode), so the rest of tapetrace never imports logrus directly.
package log

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pendulm/tapetrace/internal/env"
)

var std = logrus.New()

func init() {
	std.Out = os.Stderr
	std.SetLevel(logrus.InfoLevel)
}

// SetVerbosity maps the record/check CLIs' -q/-v occurrence counts onto
// logrus levels. Any -q takes precedence: verbose only matters when quiet
// is zero.
func SetVerbosity(quiet, verbose int) {
	switch {
	case quiet >= 2:
		std.SetLevel(logrus.PanicLevel + 1) // effectively silent
	case quiet == 1:
		std.SetLevel(logrus.ErrorLevel)
	default:
		switch verbose {
		case 0:
			std.SetLevel(logrus.InfoLevel)
		case 1:
			std.SetLevel(logrus.DebugLevel)
		default:
			std.SetLevel(logrus.TraceLevel)
		}
	}
}

// IsDebug reports whether debug-level logging is enabled, for callers that
// want to skip building an expensive log argument otherwise.
func IsDebug() bool {
	return std.IsLevelEnabled(logrus.DebugLevel)
}

// WithField returns a logrus entry pre-populated with one structured field,
// for call sites that want to attach e.g. a pid or syscall name.
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

// Debug logs at debug level.
func Debug(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

// Error logs at error level without exiting.
func Error(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

// Die logs at error level and exits with env.ExitErr.
func Die(format string, v ...interface{}) {
	std.Errorf(format, v...)
	os.Exit(env.ExitErr)
}

// DieWithCode logs at error level and exits with the given code.
func DieWithCode(code int, format string, v ...interface{}) {
	std.Errorf(format, v...)
	os.Exit(code)
}
