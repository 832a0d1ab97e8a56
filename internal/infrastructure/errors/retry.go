package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// RetryLogger defines the interface for logging retry operations
type RetryLogger interface {
	Printf(format string, v ...interface{})
}

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts     int           // Maximum number of attempts
	InitialDelay    time.Duration // Initial delay between attempts
	MaxDelay        time.Duration // Maximum delay between attempts
	BackoffFactor   float64       // Exponential backoff factor
	Jitter          bool          // Whether to add jitter to delays
	RetryableErrors []ErrorCode   // Codes that may be retried
}

var retryLogger RetryLogger

// DefaultRetryConfig is tuned for a local SQLite file
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeBusy,
			ErrCodeConnection,
			ErrCodeTimeout,
		},
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

// SetRetryLogger sets the package-level logger for retry operations
func SetRetryLogger(logger RetryLogger) {
	retryLogger = logger
}

func logRetry(format string, v ...interface{}) {
	if retryLogger != nil {
		retryLogger.Printf(format, v...)
	}
}

// WithRetry runs operation until it succeeds, fails with a non-retryable
// error, runs out of attempts or ctx is done.
func WithRetry(ctx context.Context, config *RetryConfig, name string, operation RetryableOperation) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				logRetry("Store operation '%s' succeeded after %d attempts", name, attempt+1)
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			return err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(attempt, config)
		logRetry("Store operation '%s' failed (attempt %d/%d), retrying in %v: %v",
			name, attempt+1, config.MaxAttempts, delay, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation '%s' cancelled during retry: %w", name, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", name, config.MaxAttempts, lastErr)
}

func shouldRetry(err error, config *RetryConfig) bool {
	var se *ShellError
	if !errors.As(err, &se) {
		return false
	}
	if !se.IsRetryable() {
		return false
	}
	return slices.Contains(config.RetryableErrors, se.Code)
}

func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := 1.0
	for range attempt {
		multiplier *= config.BackoffFactor
	}

	delay := time.Duration(float64(config.InitialDelay) * multiplier)

	if config.Jitter && delay > 0 {
		// up to 25%
		if jitter := time.Duration(float64(delay) * 0.25); jitter > 0 {
			delay += time.Duration(time.Now().UnixNano() % int64(jitter))
		}
	}

	return min(delay, config.MaxDelay)
}
