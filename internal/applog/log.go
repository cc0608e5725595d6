// Package applog provides structured logging for the upgrade/checkout
// pipeline. By default, logging is disabled (null logger) for zero overhead
// in the common case where the CLI runs without -V/-D. Enable logging by
// calling SetLogger, or the EnableDebugLogging/EnableVerboseLogging helpers
// that internal/cli wires up from the -D/-V flags, or EnableFileLogging.
package applog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level represents the logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an integer field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 creates an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Float64 creates a float64 field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Bool creates a boolean field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Logger is the interface for structured logging used throughout the
// pipeline. Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
}

// nullLogger is a no-op logger that discards all output.
type nullLogger struct{}

func (n *nullLogger) Debug(msg string, fields ...Field) {}
func (n *nullLogger) Info(msg string, fields ...Field)  {}
func (n *nullLogger) Warn(msg string, fields ...Field)  {}
func (n *nullLogger) Error(msg string, fields ...Field) {}
func (n *nullLogger) WithFields(fields ...Field) Logger { return n }

// logrusLogger adapts an *logrus.Entry to the Logger interface, translating
// Field values into logrus.Fields on every call.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger backed by logrus, writing to out at the given
// minimum level. Output format matches the appliance's other boot-time
// tooling: plain text with a leading timestamp, no color codes (the console
// is usually a serial port).
func NewLogger(out io.Writer, level Level) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level.logrusLevel())
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (s *logrusLogger) fieldsOf(fields []Field) logrus.Fields {
	if len(fields) == 0 {
		return nil
	}
	f := make(logrus.Fields, len(fields))
	for _, field := range fields {
		f[field.Key] = field.Value
	}
	return f
}

func (s *logrusLogger) Debug(msg string, fields ...Field) {
	s.entry.WithFields(s.fieldsOf(fields)).Debug(msg)
}

func (s *logrusLogger) Info(msg string, fields ...Field) {
	s.entry.WithFields(s.fieldsOf(fields)).Info(msg)
}

func (s *logrusLogger) Warn(msg string, fields ...Field) {
	s.entry.WithFields(s.fieldsOf(fields)).Warn(msg)
}

func (s *logrusLogger) Error(msg string, fields ...Field) {
	s.entry.WithFields(s.fieldsOf(fields)).Error(msg)
}

func (s *logrusLogger) WithFields(fields ...Field) Logger {
	return &logrusLogger{entry: s.entry.WithFields(s.fieldsOf(fields))}
}

// Package-level logger (null by default for zero overhead).
var (
	defaultLogger Logger = &nullLogger{}
	loggerMu      sync.RWMutex
)

// SetLogger sets the package-level logger. Call with nil to disable logging.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		defaultLogger = &nullLogger{}
	} else {
		defaultLogger = l
	}
}

// GetLogger returns the current package-level logger.
func GetLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// EnableDebugLogging enables debug-level logging to stderr. Wired up by -D.
func EnableDebugLogging() {
	SetLogger(NewLogger(os.Stderr, LevelDebug))
}

// EnableVerboseLogging enables info-level (trace) logging to stderr. Wired
// up by -V.
func EnableVerboseLogging() {
	SetLogger(NewLogger(os.Stderr, LevelInfo))
}

// EnableFileLogging enables logging to a file at the given level.
func EnableFileLogging(path string, level Level) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	SetLogger(NewLogger(f, level))
	return nil
}

// Debug logs a debug message on the package-level logger.
func Debug(msg string, fields ...Field) { GetLogger().Debug(msg, fields...) }

// Info logs an info message on the package-level logger.
func Info(msg string, fields ...Field) { GetLogger().Info(msg, fields...) }

// Warn logs a warning message on the package-level logger.
func Warn(msg string, fields ...Field) { GetLogger().Warn(msg, fields...) }

// Error logs an error message on the package-level logger.
func Error(msg string, fields ...Field) { GetLogger().Error(msg, fields...) }
