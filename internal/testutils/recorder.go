package testutils

import (
	"strings"
	"sync"
)

// LogEntry is one call captured by RecordingLogger
type LogEntry struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger satisfies logging.Logger and keeps every call. Safe for
// concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (r *RecordingLogger) record(level, msg string, fields []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...any) { r.record("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...any)  { r.record("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...any)  { r.record("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...any) { r.record("error", msg, fields) }

// Entries returns a copy of the captured calls
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of calls at level
func (r *RecordingLogger) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any call at level has a message containing substr
func (r *RecordingLogger) Contains(level, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}
