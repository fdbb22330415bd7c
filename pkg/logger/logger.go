package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind typed structured fields.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout, stderr, or file path
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// Nop returns a logger that discards everything; used in tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying the given fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	child := l.zl
	for _, f := range fields {
		k, v := f.KeyValue()
		child = child.With().Interface(k, v).Logger()
	}
	return &Logger{zl: child}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), msg, fields) }

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// Field is one typed structured-log key/value pair.
type Field interface {
	AddTo(event *zerolog.Event)
	KeyValue() (string, interface{})
}

type stringField struct {
	key, value string
}

func (f stringField) AddTo(e *zerolog.Event)          { e.Str(f.key, f.value) }
func (f stringField) KeyValue() (string, interface{}) { return f.key, f.value }

type intField struct {
	key   string
	value int
}

func (f intField) AddTo(e *zerolog.Event)          { e.Int(f.key, f.value) }
func (f intField) KeyValue() (string, interface{}) { return f.key, f.value }

type int64Field struct {
	key   string
	value int64
}

func (f int64Field) AddTo(e *zerolog.Event)          { e.Int64(f.key, f.value) }
func (f int64Field) KeyValue() (string, interface{}) { return f.key, f.value }

type boolField struct {
	key   string
	value bool
}

func (f boolField) AddTo(e *zerolog.Event)          { e.Bool(f.key, f.value) }
func (f boolField) KeyValue() (string, interface{}) { return f.key, f.value }

type errorField struct {
	value error
}

func (f errorField) AddTo(e *zerolog.Event)          { e.Err(f.value) }
func (f errorField) KeyValue() (string, interface{}) { return "error", f.value }

type anyField struct {
	key   string
	value interface{}
}

func (f anyField) AddTo(e *zerolog.Event)          { e.Interface(f.key, f.value) }
func (f anyField) KeyValue() (string, interface{}) { return f.key, f.value }

// --- Field constructors ---

func String(key, value string) Field { return stringField{key, value} }
func Int(key string, value int) Field { return intField{key, value} }
func Int64(key string, value int64) Field { return int64Field{key, value} }
func Bool(key string, value bool) Field { return boolField{key, value} }
func Error(err error) Field { return errorField{err} }
func Any(key string, value interface{}) Field { return anyField{key, value} }

// Duration logs a duration in whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return int64Field{key, value.Milliseconds()}
}
