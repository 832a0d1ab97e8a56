package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used across the shell. Fields are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// ZerologLogger implements Logger on top of zerolog
type ZerologLogger struct {
	zlog zerolog.Logger
	file *os.File
}

// Option configures a ZerologLogger
type Option func(*ZerologLogger) error

// WithConsole writes human readable output to stderr
func WithConsole() Option {
	return func(l *ZerologLogger) error {
		l.zlog = l.zlog.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		return nil
	}
}

// WithWriter writes JSON lines to w
func WithWriter(w io.Writer) Option {
	return func(l *ZerologLogger) error {
		l.zlog = l.zlog.Output(w)
		return nil
	}
}

// WithFile appends plain console-formatted output to path
func WithFile(path string) Option {
	return func(l *ZerologLogger) error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		l.zlog = l.zlog.Output(zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
		return nil
	}
}

// WithLevel sets the minimum level
func WithLevel(level zerolog.Level) Option {
	return func(l *ZerologLogger) error {
		l.zlog = l.zlog.Level(level)
		return nil
	}
}

// NewZerologLogger creates a logger writing JSON to stderr unless an
// output option says otherwise.
func NewZerologLogger(opts ...Option) (*ZerologLogger, error) {
	l := &ZerologLogger{
		zlog: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("failed to apply logger option: %w", err)
		}
	}
	return l, nil
}

// NewDefaultLogger returns an info-level console logger
func NewDefaultLogger() Logger {
	l, _ := NewZerologLogger(WithConsole(), WithLevel(zerolog.InfoLevel))
	return l
}

// ParseLevel maps a config level name to a zerolog level
func ParseLevel(level string) (zerolog.Level, error) {
	switch level {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// Close closes the log file, if any
func (l *ZerologLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *ZerologLogger) Debug(msg string, fields ...interface{}) {
	addFields(l.zlog.Debug(), fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields ...interface{}) {
	addFields(l.zlog.Info(), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields ...interface{}) {
	addFields(l.zlog.Warn(), fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields ...interface{}) {
	addFields(l.zlog.Error(), fields).Msg(msg)
}

// addFields attaches key/value pairs. Non-string keys and a dangling last
// value are kept under positional names so nothing is dropped.
func addFields(event *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			event = event.Interface(fmt.Sprintf("field_%d", i/2), fields[i])
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		if err, isErr := fields[i+1].(error); isErr {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, fields[i+1])
	}
	return event
}

// ShellError is the view of a classified error the logging helpers need.
// Declared here to avoid an import cycle with the errors package.
type ShellError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogShellError logs err with its classification and extra context
func LogShellError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{"operation", operation}

	var shellErr ShellError
	if asShellError(err, &shellErr) {
		fields = append(fields,
			"error_code", shellErr.GetCode(),
			"retryable", shellErr.IsRetryable(),
		)
		for k, v := range shellErr.GetContext() {
			fields = append(fields, k, v)
		}
	} else {
		fields = append(fields, "error_type", fmt.Sprintf("%T", err))
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("%s failed: %v", operation, err), fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Debug(fmt.Sprintf("Operation completed: %s", operation), fields...)
}

// asShellError walks err's Unwrap chain looking for a ShellError
func asShellError(err error, target *ShellError) bool {
	for err != nil {
		if se, ok := err.(ShellError); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
