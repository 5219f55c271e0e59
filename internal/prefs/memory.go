package prefs

import (
	"context"
	"sync"
)

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, clientID, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[clientID][name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, clientID, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.values[clientID]
	if !ok {
		client = make(map[string][]byte)
		m.values[clientID] = client
	}
	client[name] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, clientID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client, ok := m.values[clientID]; ok {
		delete(client, name)
		if len(client) == 0 {
			delete(m.values, clientID)
		}
	}
	return nil
}
