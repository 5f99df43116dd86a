// Package log provides the structured logging contract shared by all
// walletbridge packages, together with a zap-backed implementation.
// Library code depends only on the Logger interface; binaries decide the
// backend and output format.
package log

import (
	"fmt"
	"strings"
)

// Level is a named log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// ParseLevel parses a level name, case-insensitively. Unknown names fall
// back to info.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal:
		return Level(strings.ToLower(s)), nil
	case "":
		return LevelInfo, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %s", s)
}

// Logger is a leveled key-value logger.
// keysAndValues are treated as alternating key-value pairs
// (e.g., "key1", value1, "key2", value2).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)

	// WithName returns a logger for a named subsystem. Names nest with a
	// dot separator.
	WithName(name string) Logger
	// WithKV returns a logger that attaches the given key-value pairs to
	// every entry.
	WithKV(keysAndValues ...any) Logger
	// Name returns the full dotted name of this logger.
	Name() string
}

// Config controls the zap-backed logger construction.
type Config struct {
	// Format selects the output encoding: "json", "logfmt" or "console".
	Format string
	// Level is the minimum severity emitted.
	Level Level
}

// NewNoop returns a logger that discards everything. Fatal still does not
// exit; the noop logger is meant for tests and optional dependencies.
func NewNoop() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any)      {}
func (noopLogger) Info(string, ...any)       {}
func (noopLogger) Warn(string, ...any)       {}
func (noopLogger) Error(string, ...any)      {}
func (noopLogger) Fatal(string, ...any)      {}
func (n noopLogger) WithName(string) Logger  { return n }
func (n noopLogger) WithKV(...any) Logger    { return n }
func (noopLogger) Name() string              { return "" }
