package cursorstore

import (
	"context"
	"sync"
)

// MemoryStore holds cursors in process memory. Cursors are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cursors: make(map[string]string)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[key], nil
}

func (s *MemoryStore) Save(ctx context.Context, key, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[key] = cursor
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cursors[key]; !ok {
		return ErrNotFound
	}
	delete(s.cursors, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
