package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"webwrap/internal/infrastructure/errors"
	"webwrap/internal/repository"
	"webwrap/internal/types"
)

// MockRepository implements the StateRepository interface for testing
type MockRepository struct {
	mu          sync.RWMutex
	windowState *types.WindowState
	events      []types.FocusEvent
	pruneCutoff []time.Time

	saveCallCount   int
	loadCallCount   int
	recordCallCount int
	pruneCallCount  int

	shouldFailSave   bool
	shouldFailLoad   bool
	shouldFailRecord bool
}

var _ repository.StateRepository = (*MockRepository)(nil)

func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockRepository) SetFailureModes(save, load, record bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailSave = save
	m.shouldFailLoad = load
	m.shouldFailRecord = record
}

// GetCallCounts returns the number of times each method was called
func (m *MockRepository) GetCallCounts() (save, load, record, prune int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCallCount, m.loadCallCount, m.recordCallCount, m.pruneCallCount
}

func (m *MockRepository) SaveWindowState(ctx context.Context, state types.WindowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCallCount++
	if m.shouldFailSave {
		return errors.New("SaveWindowState", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}
	m.windowState = &state
	return nil
}

func (m *MockRepository) LoadWindowState(ctx context.Context) (*types.WindowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCallCount++
	if m.shouldFailLoad {
		return nil, errors.New("LoadWindowState", fmt.Errorf("mock load failure"), errors.ErrCodeCorruption)
	}
	if m.windowState == nil {
		return nil, errors.HandleNotFound("LoadWindowState", "window_state", "1")
	}
	state := *m.windowState
	return &state, nil
}

func (m *MockRepository) RecordFocusEvent(ctx context.Context, event types.FocusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCallCount++
	if m.shouldFailRecord {
		return errors.New("RecordFocusEvent", fmt.Errorf("mock record failure"), errors.ErrCodeBusy)
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockRepository) RecentFocusEvents(ctx context.Context, limit int) ([]types.FocusEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]types.FocusEvent, len(m.events))
	copy(events, m.events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MockRepository) PruneFocusEvents(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCallCount++
	m.pruneCutoff = append(m.pruneCutoff, before)

	kept := m.events[:0]
	var removed int64
	for _, e := range m.events {
		if e.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return removed, nil
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repo repository.StateRepository) error) error {
	return fn(m)
}

// Cutoffs returns every cutoff PruneFocusEvents was called with
func (m *MockRepository) Cutoffs() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Time(nil), m.pruneCutoff...)
}
