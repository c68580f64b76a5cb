// Package store keeps one module's state in memory and writes a snapshot of it
// through a persistence adapter after every successful mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"hotel-pms/internal/persist"
)

type Store[S any] struct {
	key     string
	adapter persist.Adapter
	mu      sync.RWMutex
	state   S
}

func New[S any](key string, adapter persist.Adapter, initial S) *Store[S] {
	return &Store[S]{key: key, adapter: adapter, state: initial}
}

func (s *Store[S]) Key() string {
	return s.key
}

// Hydrate replaces the in-memory state with the saved snapshot. It reports
// false when nothing has been saved under the key yet.
func (s *Store[S]) Hydrate(ctx context.Context) (bool, error) {
	data, err := s.adapter.Load(ctx, s.key)
	if errors.Is(err, persist.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", s.key, err)
	}

	var loaded S
	if err := json.Unmarshal(data, &loaded); err != nil {
		return false, fmt.Errorf("decode %s: %w", s.key, err)
	}

	s.mu.Lock()
	s.state = loaded
	s.mu.Unlock()

	return true, nil
}

// Read runs fn with shared access. fn must not keep references past its return.
func (s *Store[S]) Read(fn func(state *S)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(&s.state)
}

// Mutate runs fn with exclusive access. When fn fails the state is rolled back
// to what it was before the call and nothing is persisted. Persistence
// failures are logged; the in-memory mutation stands.
func (s *Store[S]) Mutate(ctx context.Context, fn func(state *S) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", s.key, err)
	}

	if err := fn(&s.state); err != nil {
		var restored S
		if decodeErr := json.Unmarshal(before, &restored); decodeErr == nil {
			s.state = restored
		}
		return err
	}

	s.persistLocked(ctx)
	return nil
}

// Replace swaps in a whole new state, used when seeding from demo fixtures.
func (s *Store[S]) Replace(ctx context.Context, state S) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	s.persistLocked(ctx)
}

func (s *Store[S]) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		slog.Warn("store snapshot encode failed", "store", s.key, "error", err)
		return
	}

	if err := s.adapter.Save(ctx, s.key, data); err != nil {
		slog.Warn("store snapshot save failed", "store", s.key, "error", err)
	}
}
