package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides structured logging capabilities.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint32 creates a uint32 field.
func Uint32(key string, value uint32) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// ZerologAdapter implements Logger using zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a console logger writing to stderr at the given
// level. Unknown levels fall back to info.
func NewZerologAdapter(level string) *ZerologAdapter {
	return newConsoleAdapter(os.Stderr, level, false)
}

// NewZerologAdapterWithWriter creates an uncolored console logger writing to
// out.
func NewZerologAdapterWithWriter(out io.Writer, level string) *ZerologAdapter {
	return newConsoleAdapter(out, level, true)
}

func newConsoleAdapter(out io.Writer, level string, noColor bool) *ZerologAdapter {
	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger()
	return &ZerologAdapter{logger: logger}
}

// ParseLevel maps a config level name onto a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Debug logs a debug-level message.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	emit(z.logger.Debug(), msg, fields)
}

// Info logs an info-level message.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	emit(z.logger.Info(), msg, fields)
}

// Warn logs a warning-level message.
func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	emit(z.logger.Warn(), msg, fields)
}

// Error logs an error-level message.
func (z *ZerologAdapter) Error(msg string, fields ...Field) {
	emit(z.logger.Error(), msg, fields)
}

// Zerolog returns the underlying zerolog.Logger.
func (z *ZerologAdapter) Zerolog() zerolog.Logger {
	return z.logger
}

func emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case uint32:
		return event.Uint32(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case error:
		return event.Err(v)
	default:
		return event.Interface(f.Key, v)
	}
}

// NoopLogger implements Logger by discarding all log messages.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(msg string, fields ...Field) {}
func (NoopLogger) Info(msg string, fields ...Field)  {}
func (NoopLogger) Warn(msg string, fields ...Field)  {}
func (NoopLogger) Error(msg string, fields ...Field) {}
