package services

import (
	"context"
	"time"

	"webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/repository"
	"webwrap/internal/types"
)

// WindowGeometry remembers the main window's size and position between runs.
// Store failures are logged and never surface to the caller.
type WindowGeometry struct {
	repository repository.StateRepository
	logger     logging.Logger
	now        func() time.Time
}

// NewWindowGeometry creates a geometry store backed by repo; a nil repo
// disables persistence
func NewWindowGeometry(repo repository.StateRepository, logger logging.Logger) *WindowGeometry {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &WindowGeometry{
		repository: repo,
		logger:     logger,
		now:        time.Now,
	}
}

// Restore returns the saved state, or nil when nothing usable was saved
func (g *WindowGeometry) Restore(ctx context.Context) *types.WindowState {
	if g.repository == nil {
		return nil
	}

	state, err := g.repository.LoadWindowState(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			g.logger.Debug("No saved window state")
		} else {
			logging.LogShellError(g.logger, err, "RestoreWindowState", nil)
		}
		return nil
	}
	if !state.Valid() {
		g.logger.Warn("Ignoring saved window state with invalid size",
			"width", state.Width, "height", state.Height)
		return nil
	}
	return state
}

// Save stores the current geometry. Invalid sizes (a minimised window
// reports zero) are skipped.
func (g *WindowGeometry) Save(ctx context.Context, width, height, x, y int) {
	if g.repository == nil {
		return
	}

	state := types.WindowState{Width: width, Height: height, X: x, Y: y, UpdatedAt: g.now()}
	if !state.Valid() {
		g.logger.Debug("Skipping window state save", "width", width, "height", height)
		return
	}
	if err := g.repository.SaveWindowState(ctx, state); err != nil {
		logging.LogShellError(g.logger, err, "SaveWindowState", nil)
	}
}
