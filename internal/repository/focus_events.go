package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repoerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/types"
)

// DefaultHistoryLimit is used when RecentFocusEvents is called with a
// non-positive limit
const DefaultHistoryLimit = 50

const insertFocusEvent = `
INSERT INTO focus_events (request_id, token, outcome, window_id, error, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const selectRecentFocusEvents = `
SELECT request_id, token, outcome, window_id, error, duration_ms, created_at
FROM focus_events
ORDER BY created_at DESC, id DESC
LIMIT ?`

const deleteFocusEventsBefore = `
DELETE FROM focus_events WHERE created_at < ?`

// RecordFocusEvent appends one focus request to the history
func (r *SQLiteRepository) RecordFocusEvent(ctx context.Context, event types.FocusEvent) error {
	start := time.Now()

	if event.RequestID == "" || event.Outcome == "" {
		err := repoerrors.HandleValidationError("RecordFocusEvent", "event", event.RequestID,
			"request id and outcome are required")
		logging.LogShellError(r.logger, err, "RecordFocusEvent", nil)
		return err
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := repoerrors.WithRetry(ctx, r.retryConfig, "RecordFocusEvent", func() error {
		_, err := r.conn.ExecContext(ctx, insertFocusEvent,
			event.RequestID,
			event.Token,
			event.Outcome,
			nullInt(event.WindowID),
			nullString(event.Error),
			event.DurationMs,
			createdAt.UTC(),
		)
		if err != nil {
			return r.storeError("RecordFocusEvent", err, map[string]string{
				"request_id": event.RequestID,
				"outcome":    event.Outcome,
			})
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "RecordFocusEvent", time.Since(start), map[string]interface{}{
			"request_id": event.RequestID,
			"outcome":    event.Outcome,
		})
	}
	return err
}

// RecentFocusEvents returns up to limit events, newest first
func (r *SQLiteRepository) RecentFocusEvents(ctx context.Context, limit int) ([]types.FocusEvent, error) {
	start := time.Now()
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var events []types.FocusEvent
	err := repoerrors.WithRetry(ctx, r.retryConfig, "RecentFocusEvents", func() error {
		rows, err := r.conn.QueryContext(ctx, selectRecentFocusEvents, limit)
		if err != nil {
			return r.storeError("RecentFocusEvents", err, map[string]string{
				"limit": fmt.Sprintf("%d", limit),
			})
		}
		defer rows.Close()

		events = events[:0]
		for rows.Next() {
			var (
				event    types.FocusEvent
				windowID sql.NullInt64
				errText  sql.NullString
			)
			if err := rows.Scan(&event.RequestID, &event.Token, &event.Outcome,
				&windowID, &errText, &event.DurationMs, &event.CreatedAt); err != nil {
				return r.storeError("RecentFocusEvents.Scan", err, nil)
			}
			event.WindowID = int(windowID.Int64)
			event.Error = errText.String
			events = append(events, event)
		}
		if err := rows.Err(); err != nil {
			return r.storeError("RecentFocusEvents", err, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.LogOperation(r.logger, "RecentFocusEvents", time.Since(start), map[string]interface{}{
		"count": len(events),
	})
	return events, nil
}

// PruneFocusEvents deletes events recorded before the cutoff and returns how
// many were removed
func (r *SQLiteRepository) PruneFocusEvents(ctx context.Context, before time.Time) (int64, error) {
	start := time.Now()

	var removed int64
	err := repoerrors.WithRetry(ctx, r.retryConfig, "PruneFocusEvents", func() error {
		res, err := r.conn.ExecContext(ctx, deleteFocusEventsBefore, before.UTC())
		if err != nil {
			return r.storeError("PruneFocusEvents", err, map[string]string{
				"before": before.Format(time.RFC3339),
			})
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return r.storeError("PruneFocusEvents", err, nil)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.LogOperation(r.logger, "PruneFocusEvents", time.Since(start), map[string]interface{}{
		"removed": removed,
		"before":  before.Format(time.RFC3339),
	})
	return removed, nil
}
