package harvest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

// MemoryStateStore keeps source state in process. State is lost on restart,
// which makes every source due again.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]*domain.SourceState
	now    func() time.Time
}

// NewMemoryStateStore creates an empty MemoryStateStore.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]*domain.SourceState), now: time.Now}
}

// GetOrCreate implements StateStore.
func (m *MemoryStateStore) GetOrCreate(_ context.Context, sourceID string) (*domain.SourceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.getOrCreate(sourceID)
	cp := *st
	return &cp, nil
}

// RecordRun implements StateStore.
func (m *MemoryStateStore) RecordRun(_ context.Context, sourceID string, result domain.RunResult) (*domain.SourceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.getOrCreate(sourceID)
	st.Apply(result)
	cp := *st
	return &cp, nil
}

// List implements StateStore.
func (m *MemoryStateStore) List(_ context.Context) ([]*domain.SourceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.SourceState, 0, len(m.states))
	for _, st := range m.states {
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })

	return out, nil
}

// Reset implements StateStore.
func (m *MemoryStateStore) Reset(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.getOrCreate(sourceID)
	st.LastSyncAt = nil
	st.ConsecutiveEmpty = 0
	st.LastError = nil
	st.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStateStore) getOrCreate(sourceID string) *domain.SourceState {
	st, ok := m.states[sourceID]
	if !ok {
		now := m.now()
		st = &domain.SourceState{SourceID: sourceID, CreatedAt: now, UpdatedAt: now}
		m.states[sourceID] = st
	}
	return st
}
