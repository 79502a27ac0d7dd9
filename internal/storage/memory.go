package storage

import (
	"sort"
	"sync"

	"yd-go/internal/yd"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Nothing survives the process, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStorage struct {
	items map[string]string
	mu    sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Keys returns every key in lexical order.
func (m *MemoryStorage) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Compile-time check that MemoryStorage implements yd.Storage interface
var _ yd.Storage = (*MemoryStorage)(nil)
