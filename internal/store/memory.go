package store

import (
	"context"
	"sync"
)

// Memory is an in-process store for tests and throwaway games. Snapshots are
// kept as encoded documents so tests exercise the same schema validation the
// durable backends do.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: map[string][]byte{}}
}

func (m *Memory) Load(_ context.Context, playerID string) (Snapshot, error) {
	m.mu.RLock()
	raw, ok := m.docs[playerID]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return decodeSnapshot(raw)
}

func (m *Memory) Save(_ context.Context, snap Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[snap.Player.ID] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) Close() {}
