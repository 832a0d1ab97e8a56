package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies failures raised inside the shell
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	// External command exited non-zero
	ErrCodeExecution
	// External command wrote to stderr
	ErrCodeDiagnosticOutput
	// Expected textual pattern not found in window-manager output
	ErrCodeParseMismatch
	// Optional stylesheet could not be retrieved
	ErrCodeFetchFailure
	ErrCodeNotFound
	ErrCodeConnection
	ErrCodeTimeout
	ErrCodeBusy
	ErrCodeValidation
	ErrCodePermission
	ErrCodeCorruption
	ErrCodeSchema
	ErrCodeInternal
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeExecution:
		return "EXECUTION"
	case ErrCodeDiagnosticOutput:
		return "DIAGNOSTIC_OUTPUT"
	case ErrCodeParseMismatch:
		return "PARSE_MISMATCH"
	case ErrCodeFetchFailure:
		return "FETCH_FAILURE"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeConnection:
		return "CONNECTION"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodeSchema:
		return "SCHEMA"
	case ErrCodeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// ShellError is a classified error with operation context
type ShellError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the store may retry the operation
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *ShellError) Error() string {
	if e == nil {
		return "shell error"
	}

	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}
	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	// sorted for stable output
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	suffix := ""
	if len(parts) > 0 {
		suffix = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + suffix
	}
	return "shell error" + suffix
}

func (e *ShellError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *ShellError by code, otherwise defers to the wrapped error
func (e *ShellError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ShellError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *ShellError) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the error code as a string (for the logging interface)
func (e *ShellError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for the logging interface)
func (e *ShellError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for the logging interface)
func (e *ShellError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds a context entry by mutating the receiver. Not safe once
// the error has been shared with other goroutines.
func (e *ShellError) WithContext(key, value string) *ShellError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a classified error
func New(op string, err error, code ErrorCode) *ShellError {
	return &ShellError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableCode(code),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewWithContext creates a classified error carrying a copy of ctx
func NewWithContext(op string, err error, code ErrorCode, ctx map[string]string) *ShellError {
	e := New(op, err, code)
	for k, v := range ctx {
		e.Context[k] = v
	}
	return e
}

// Only store-side failures are retryable. Command and fetch failures are
// single attempt.
func isRetryableCode(code ErrorCode) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeBusy:
		return true
	default:
		return false
	}
}

func hasCode(err error, code ErrorCode) bool {
	var se *ShellError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// CodeOf returns the code of the first ShellError in err's chain
func CodeOf(err error) ErrorCode {
	var se *ShellError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnknown
}

func IsExecution(err error) bool        { return hasCode(err, ErrCodeExecution) }
func IsDiagnosticOutput(err error) bool { return hasCode(err, ErrCodeDiagnosticOutput) }
func IsParseMismatch(err error) bool    { return hasCode(err, ErrCodeParseMismatch) }
func IsFetchFailure(err error) bool     { return hasCode(err, ErrCodeFetchFailure) }
func IsNotFound(err error) bool         { return hasCode(err, ErrCodeNotFound) }
func IsConnection(err error) bool       { return hasCode(err, ErrCodeConnection) }
func IsTimeout(err error) bool          { return hasCode(err, ErrCodeTimeout) }
func IsBusy(err error) bool             { return hasCode(err, ErrCodeBusy) }
func IsValidation(err error) bool       { return hasCode(err, ErrCodeValidation) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var se *ShellError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
