package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory BlobStore. State is lost on restart, which is
// fine for tests and throwaway demo runs.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	markers map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		markers: make(map[string]bool),
	}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[key] = stored
	return nil
}

func (s *MemoryStore) HasMarker(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers[key], nil
}

func (s *MemoryStore) SetMarker(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[key] = true
	return nil
}

func (s *MemoryStore) Close() error { return nil }
