package services

import (
	"context"
	"sync"
	"time"

	"webwrap/internal/focus"
	"webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/repository"
	"webwrap/internal/types"
)

// DefaultPruneInterval is how often the retention loop runs
const DefaultPruneInterval = time.Hour

// FocusHistory records focus requests in the store and keeps the history
// within its retention window
type FocusHistory struct {
	repository    repository.StateRepository
	logger        logging.Logger
	retentionDays int
	pruneInterval time.Duration
	now           func() time.Time
	optimize      func(context.Context) error

	mutex              sync.RWMutex
	persistenceEnabled bool
	stopPruning        chan struct{}
	pruneDone          chan struct{}
}

var _ focus.Recorder = (*FocusHistory)(nil)

// NewFocusHistory creates a focus history backed by repo. A retention of
// zero days keeps every event.
func NewFocusHistory(repo repository.StateRepository, retentionDays int, logger logging.Logger) *FocusHistory {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &FocusHistory{
		repository:         repo,
		logger:             logger,
		retentionDays:      retentionDays,
		pruneInterval:      DefaultPruneInterval,
		now:                time.Now,
		persistenceEnabled: true,
	}
}

// RecordFocus stores one finished focus request
func (h *FocusHistory) RecordFocus(ctx context.Context, result focus.Result) error {
	if h.repository == nil || !h.IsPersistenceEnabled() {
		return nil
	}

	createdAt := result.StartedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}

	return h.repository.RecordFocusEvent(ctx, types.FocusEvent{
		RequestID:  result.RequestID,
		Token:      result.Token,
		Outcome:    string(result.Outcome),
		WindowID:   result.WindowID,
		Error:      result.Error,
		DurationMs: result.Duration.Milliseconds(),
		CreatedAt:  createdAt,
	})
}

// Recent returns up to limit recorded requests, newest first
func (h *FocusHistory) Recent(ctx context.Context, limit int) ([]types.FocusEvent, error) {
	if h.repository == nil {
		return nil, errors.HandleConnectionError("Recent", "no repository configured")
	}
	return h.repository.RecentFocusEvents(ctx, limit)
}

// Prune deletes events older than the retention window
func (h *FocusHistory) Prune(ctx context.Context) (int64, error) {
	if h.repository == nil {
		return 0, errors.HandleConnectionError("Prune", "no repository configured")
	}
	if h.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := h.now().AddDate(0, 0, -h.retentionDays)
	removed, err := h.repository.PruneFocusEvents(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		h.logger.Info("Pruned focus history", "removed", removed, "retention_days", h.retentionDays)
		if h.optimize != nil {
			if err := h.optimize(ctx); err != nil {
				logging.LogShellError(h.logger, err, "OptimizeAfterPrune", nil)
			}
		}
	}
	return removed, nil
}

// SetOptimizer sets a store compaction run after a prune removes rows.
// Call before Start.
func (h *FocusHistory) SetOptimizer(optimize func(context.Context) error) {
	h.optimize = optimize
}

// Start prunes once and then keeps pruning on an interval until Stop
func (h *FocusHistory) Start() {
	h.mutex.Lock()
	if h.stopPruning != nil || h.retentionDays <= 0 {
		h.mutex.Unlock()
		return
	}
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	h.stopPruning = stopCh
	h.pruneDone = doneCh
	interval := h.pruneInterval
	h.mutex.Unlock()

	go func() {
		defer close(doneCh)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.pruneInBackground()
		for {
			select {
			case <-ticker.C:
				h.pruneInBackground()
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop ends the retention loop and waits for it to exit
func (h *FocusHistory) Stop() {
	h.mutex.Lock()
	stopCh, doneCh := h.stopPruning, h.pruneDone
	h.stopPruning, h.pruneDone = nil, nil
	h.mutex.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (h *FocusHistory) pruneInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := h.Prune(ctx); err != nil {
		logging.LogShellError(h.logger, err, "PruneFocusHistory", map[string]interface{}{
			"retention_days": h.retentionDays,
		})
	}
}

// SetPersistenceEnabled enables or disables recording
func (h *FocusHistory) SetPersistenceEnabled(enabled bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.persistenceEnabled = enabled
}

// IsPersistenceEnabled returns whether recording is enabled
func (h *FocusHistory) IsPersistenceEnabled() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.persistenceEnabled
}
