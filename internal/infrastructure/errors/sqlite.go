package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ClassifyError maps store errors onto error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(msg, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return ErrCodeSchema
	case strings.Contains(msg, "permission denied"):
		return ErrCodePermission
	case strings.Contains(msg, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapStoreError wraps a store error with its classification
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return New(op, err, ClassifyError(err))
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op string, resource string, identifier string) error {
	return NewWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	return NewWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

func classifySQLiteError(err error) ErrorCode {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return ErrCodeUnknown
	}

	switch sqliteErr.Code {
	case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
		return ErrCodeCorruption
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return ErrCodePermission
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return ErrCodeBusy
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
		return ErrCodeConnection
	case sqlite3.ErrMisuse:
		return ErrCodeInternal
	case sqlite3.ErrSchema:
		return ErrCodeSchema
	default:
		return ErrCodeUnknown
	}
}
