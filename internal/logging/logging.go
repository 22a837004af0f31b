// Package logging provides structured logging backed by zerolog.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level controls the minimum severity that is emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// WithField builds a single structured field.
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields flattens a map into structured fields. Ordering is up to
// zerolog's encoder.
func WithFields(fields map[string]interface{}) []Field {
	out := make([]Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, Field{Key: k, Value: v})
	}
	return out
}

// Logger wraps a zerolog.Logger behind the field-based API the rest of the
// codebase uses.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger writing human-readable output to stderr.
func New(level Level) *Logger {
	return NewWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr})
}

// NewWithWriter creates a logger with a custom destination; tests pass
// io.Discard.
func NewWithWriter(level Level, w io.Writer) *Logger {
	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		event = event.Interface(f.Key, f.Value)
	}
	event.Msg(msg)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) {
	l.emit(l.zl.Info(), msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
}
