// Package store provides the versioned key-value backends holding the
// persisted documents (memory, gamification, journal).
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("key not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrCorrupt         = errors.New("stored document is corrupt")
)

// Record is one stored value and its monotonically increasing version.
type Record struct {
	Value   []byte
	Version int64
}

// Store is a single-slot-per-key durable store. Put only succeeds when the
// stored version equals expectVersion; 0 means the key must not exist.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, value []byte, expectVersion int64) (int64, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// maxUpdateAttempts bounds the retries of Update on version conflicts.
const maxUpdateAttempts = 3

// Update runs a read-modify-write transaction on key. fn receives the
// current value (nil when absent) and returns the replacement. Conflicting
// writers are retried with the fresh value.
func Update(ctx context.Context, s Store, key string, fn func(current []byte) ([]byte, error)) (Record, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Record{}, err
		}

		next, err := fn(current.Value)
		if err != nil {
			return Record{}, err
		}

		version, err := s.Put(ctx, key, next, current.Version)
		if err == nil {
			return Record{Value: next, Version: version}, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return Record{}, err
		}
		lastErr = err
	}
	return Record{}, fmt.Errorf("update %s: %w", key, lastErr)
}
