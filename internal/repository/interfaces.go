package repository

import (
	"context"
	"time"

	"webwrap/internal/types"
)

// StateRepository defines the persistence operations for window state and
// focus history
type StateRepository interface {
	// Window geometry
	SaveWindowState(ctx context.Context, state types.WindowState) error
	LoadWindowState(ctx context.Context) (*types.WindowState, error)

	// Focus history
	RecordFocusEvent(ctx context.Context, event types.FocusEvent) error
	RecentFocusEvents(ctx context.Context, limit int) ([]types.FocusEvent, error)
	PruneFocusEvents(ctx context.Context, before time.Time) (int64, error)

	// Transaction support
	WithTransaction(ctx context.Context, fn func(repo StateRepository) error) error
}
