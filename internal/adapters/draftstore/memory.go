package draftstore

import (
	"context"
	"sync"

	"SanduqVerify/internal/core/ports"
)

// memoryStore is the in-process DraftStore used in tests and in the
// local demo wiring.
type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ ports.DraftStore = (*memoryStore)(nil) // Ensure compliance

// NewMemoryStore creates an empty in-memory draft store.
func NewMemoryStore() ports.DraftStore {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
