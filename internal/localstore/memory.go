package localstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps everything in process memory. Used by tests and the
// "memory" driver.
type MemoryBackend struct {
	mu    sync.RWMutex
	store map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{store: make(map[string]map[string][]byte)}
}

func (m *MemoryBackend) Scope(namespace string) Storage {
	return &memoryStorage{backend: m, ns: namespace}
}

func (m *MemoryBackend) Close() error { return nil }

// NewMemoryStorage returns a standalone single-namespace Storage.
func NewMemoryStorage() Storage {
	return NewMemoryBackend().Scope("default")
}

type memoryStorage struct {
	backend *MemoryBackend
	ns      string
}

func (s *memoryStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	v, ok := s.backend.store[s.ns][key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *memoryStorage) SetItem(ctx context.Context, key string, value []byte) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	items, ok := s.backend.store[s.ns]
	if !ok {
		items = make(map[string][]byte)
		s.backend.store[s.ns] = items
	}
	v := make([]byte, len(value))
	copy(v, value)
	items[key] = v
	return nil
}

func (s *memoryStorage) RemoveItem(ctx context.Context, key string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.store[s.ns], key)
	return nil
}
