package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemStore keeps segments in memory under mem://key references. The HTTP
// service uses it to hand freshly cut segments to the orchestrator.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{data: map[string][]byte{}}
}

// Put implements Sink.
func (m *MemStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return "mem://" + key, nil
}

// Fetch implements Source.
func (m *MemStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	key := strings.TrimPrefix(uri, "mem://")
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return b, nil
}

// DeletePrefix drops every key starting with prefix.
func (m *MemStore) DeletePrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
}

// Len returns the number of stored segments.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
