package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repoerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/types"
)

const upsertWindowState = `
INSERT INTO window_state (id, width, height, x, y, updated_at)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    width = excluded.width,
    height = excluded.height,
    x = excluded.x,
    y = excluded.y,
    updated_at = excluded.updated_at`

const selectWindowState = `
SELECT width, height, x, y, updated_at FROM window_state WHERE id = 1`

// SaveWindowState stores the window geometry, replacing any previous value
func (r *SQLiteRepository) SaveWindowState(ctx context.Context, state types.WindowState) error {
	start := time.Now()

	if !state.Valid() {
		err := repoerrors.HandleValidationError("SaveWindowState", "size",
			fmt.Sprintf("%dx%d", state.Width, state.Height), "width and height must be positive")
		logging.LogShellError(r.logger, err, "SaveWindowState", nil)
		return err
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	err := repoerrors.WithRetry(ctx, r.retryConfig, "SaveWindowState", func() error {
		_, err := r.conn.ExecContext(ctx, upsertWindowState,
			state.Width, state.Height, state.X, state.Y, updatedAt.UTC())
		if err != nil {
			return r.storeError("SaveWindowState", err, map[string]string{
				"size": fmt.Sprintf("%dx%d", state.Width, state.Height),
			})
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "SaveWindowState", time.Since(start), map[string]interface{}{
			"width":  state.Width,
			"height": state.Height,
			"x":      state.X,
			"y":      state.Y,
		})
	}
	return err
}

// LoadWindowState returns the saved geometry, or a NOT_FOUND error when the
// window has never been saved
func (r *SQLiteRepository) LoadWindowState(ctx context.Context) (*types.WindowState, error) {
	start := time.Now()

	var result *types.WindowState
	err := repoerrors.WithRetry(ctx, r.retryConfig, "LoadWindowState", func() error {
		var state types.WindowState
		err := r.conn.QueryRowContext(ctx, selectWindowState).Scan(
			&state.Width, &state.Height, &state.X, &state.Y, &state.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repoerrors.HandleNotFound("LoadWindowState", "window_state", "1")
			}
			return r.storeError("LoadWindowState", err, nil)
		}
		result = &state
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.LogOperation(r.logger, "LoadWindowState", time.Since(start), nil)
	return result, nil
}
