package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

// MemoryStore is a mutex-based in-memory conversation state store. It is
// the default when no Redis URL is configured: good for a single instance,
// no persistence across restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*conversation.State
	log    zerolog.Logger
}

// NewMemoryStore creates a new in-memory conversation state store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*conversation.State),
		log:    log.With().Str("component", "conversation-store").Logger(),
	}
}

// Get retrieves the state for an identity key.
func (s *MemoryStore) Get(ctx context.Context, key string) (*conversation.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key]
	if !ok {
		return nil, conversation.ErrStateNotFound
	}
	return state.Clone(), nil
}

// Upsert replaces the state at key.
func (s *MemoryStore) Upsert(ctx context.Context, key string, state *conversation.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[key] = state.Clone()
	return nil
}

// Delete removes the state at key. Deleting a missing key is not an error:
// the committer and the sweeper may race on the same record.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, key)
	return nil
}

// DeleteStale removes every state whose last interaction is older than ttl
// and returns how many were removed.
func (s *MemoryStore) DeleteStale(ctx context.Context, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for key, state := range s.states {
		if state.LastInteraction.Before(cutoff) {
			delete(s.states, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many conversations are currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
