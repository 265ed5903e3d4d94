package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/teller/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.SessionState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.SessionState),
	}
}

// Save persists a deep copy of the state, similar to serialization.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	copied, err := state.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves a copy of the state so callers can't mutate the store by pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	s.mu.RLock()
	state, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone()
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Slice(sessions, func(i, j int) bool {
		a, b := s.data[sessions[i]].UpdatedAt, s.data[sessions[j]].UpdatedAt
		if a.Equal(b) {
			return sessions[i] < sessions[j]
		}
		return a.After(b)
	})
	return sessions, nil
}

// Prune drops sessions last updated before the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned []string
	for id, state := range s.data {
		if state.UpdatedAt.Before(before) {
			pruned = append(pruned, id)
			delete(s.data, id)
		}
	}
	sort.Strings(pruned)
	return pruned, nil
}
