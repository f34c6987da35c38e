package session

import (
	"context"
	"sync"
)

// Memory is a process-local store, used for tests and single-process servers.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string][]byte{}}
}

func (m *Memory) Get(ctx context.Context, sessionID, slot string) ([]byte, error) {
	if err := checkKey(sessionID, slot); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[sessionID][slot]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, sessionID, slot string, value []byte) error {
	if err := checkKey(sessionID, slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	slots, ok := m.data[sessionID]
	if !ok {
		slots = map[string][]byte{}
		m.data[sessionID] = slots
	}
	slots[slot] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Clear(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *Memory) Close() error { return nil }
