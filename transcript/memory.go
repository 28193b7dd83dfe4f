package transcript

import (
	"context"
	"sync"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]Entry
}

// NewMemoryStore returns an in-process Store.
func NewMemoryStore() Store {
	return &inMemory{}
}

func (m *inMemory) Append(_ context.Context, sessionID string, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]Entry)
	}
	m.storage[sessionID] = append(m.storage[sessionID], entries...)
	return nil
}

func (m *inMemory) Snapshot(_ context.Context, sessionID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil, nil
	}
	stored := m.storage[sessionID]
	if len(stored) == 0 {
		return nil, nil
	}
	snapshot := make([]Entry, len(stored))
	copy(snapshot, stored)
	return snapshot, nil
}

func (m *inMemory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, sessionID)
	}
	return nil
}
