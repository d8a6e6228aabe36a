// Package logging provides the shared build logger. Every line carries the
// current UTC time and the "Build Info" tag so CI logs can be correlated
// across stages.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Tag is the fixed prefix of every build log line.
const Tag = "Build Info"

// TimeFormat is the timestamp layout of build log lines.
const TimeFormat = "2006-01-02 15:04:05Z"

// Logger is the build logger type used across kitci.
type Logger = log.Logger

// New creates a build logger writing to w at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func New(w io.Writer, level string) *Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          Tag,
		ReportTimestamp: true,
		TimeFormat:      TimeFormat,
		TimeFunction:    func(t time.Time) time.Time { return t.UTC() },
		Level:           ParseLevel(level),
	})
}

// Default creates a build logger on stderr using KITCI_LOG_LEVEL.
func Default() *Logger {
	return New(os.Stderr, os.Getenv("KITCI_LOG_LEVEL"))
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(io.Discard, "error")
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
