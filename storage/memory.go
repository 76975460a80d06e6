package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps the encoded blob in memory. It exists for tests and
// for processes that deliberately opt out of persistence; sessions do not
// survive a restart.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load decodes the held blob.
func (s *MemoryStore) Load(_ context.Context) (*State, error) {
	s.mu.Lock()
	raw := s.blob
	s.mu.Unlock()

	if raw == nil {
		return nil, ErrNotFound
	}
	return Decode(raw)
}

// Save encodes and replaces the held blob.
func (s *MemoryStore) Save(_ context.Context, state *State) error {
	raw, err := Encode(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blob = raw
	s.mu.Unlock()
	return nil
}

// Clear drops the held blob.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.blob = nil
	s.mu.Unlock()
	return nil
}

// SetBlob replaces the raw blob without encoding. It exists so tests can
// seed malformed or foreign-schema payloads.
func (s *MemoryStore) SetBlob(raw []byte) {
	s.mu.Lock()
	s.blob = append([]byte(nil), raw...)
	s.mu.Unlock()
}
