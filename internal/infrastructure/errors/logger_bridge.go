package errors

import (
	"fmt"

	"webwrap/internal/infrastructure/logging"
)

// LoggerBridge adapts logging.Logger to RetryLogger
type LoggerBridge struct {
	logger logging.Logger
}

// NewLoggerBridge creates a new bridge from logging.Logger to RetryLogger
func NewLoggerBridge(logger logging.Logger) RetryLogger {
	return &LoggerBridge{logger: logger}
}

// Printf implements RetryLogger by formatting into a warn-level message
func (b *LoggerBridge) Printf(format string, v ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(fmt.Sprintf(format, v...), "source", "retry")
	}
}
