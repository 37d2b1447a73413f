package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a map. It backs tests and the "memory" driver.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{Value: append([]byte(nil), rec.Value...), Version: rec.Version}, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, expectVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[key].Version != expectVersion {
		return 0, ErrVersionConflict
	}
	next := expectVersion + 1
	s.records[key] = Record{Value: append([]byte(nil), value...), Version: next}
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
