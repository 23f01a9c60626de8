package conversation

import (
	"context"
	"errors"
)

// ErrStateNotFound is returned when no conversation state exists for a key.
var ErrStateNotFound = errors.New("conversation state not found")

// SessionStore persists conversation state keyed by identity.
// Upsert is a full replace of the record at that key: callers compute the
// merged value before calling.
type SessionStore interface {
	Get(ctx context.Context, key string) (*State, error)
	Upsert(ctx context.Context, key string, state *State) error
	Delete(ctx context.Context, key string) error
}

// TurnLocker serializes turn processing per identity key. Turns for
// different identities may run fully in parallel; two turns for the same
// identity must not interleave, since merge and migration are
// read-modify-write.
type TurnLocker interface {
	// Lock acquires the lock for key and returns the release function.
	Lock(ctx context.Context, key string) (func(), error)
}
