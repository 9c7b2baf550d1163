package store

import (
	"context"
	"sync"
)

// memoryLocalStorage is a process-local [LocalStorage] used when no DSN is
// configured and in tests.
type memoryLocalStorage struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

func NewMemoryLocalStorage() LocalStorage {
	return &memoryLocalStorage{items: make(map[string][]byte)}
}

func (m *memoryLocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	v, ok := m.items[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	return append([]byte(nil), v...), nil
}

func (m *memoryLocalStorage) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	m.items[key] = append([]byte(nil), value...)

	return nil
}

func (m *memoryLocalStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	delete(m.items, key)

	return nil
}

func (m *memoryLocalStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
