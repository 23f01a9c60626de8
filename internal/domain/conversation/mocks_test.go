package conversation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/booking"
)

// memStore is an in-memory SessionStore for tests. Stored states are cloned
// on both write and read so tests catch accidental aliasing.
type memStore struct {
	mu     sync.Mutex
	states map[string]*State

	getErr    error
	upsertErr error
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]*State)}
}

func (m *memStore) Get(_ context.Context, key string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.states[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return s.Clone(), nil
}

func (m *memStore) Upsert(_ context.Context, key string, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.states[key] = s.Clone()
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.states, key)
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[key]
	return ok
}

// fnBookingStore is a booking.Store with per-method function fields.
type fnBookingStore struct {
	checkAvailabilityFn func(ctx context.Context, date, timeOfDay string, partySize int) (bool, error)
	insertFn            func(ctx context.Context, rec *booking.Record) error
	getUpcomingFn       func(ctx context.Context, phone string) (*booking.Record, error)
}

func (f *fnBookingStore) CheckAvailability(ctx context.Context, date, timeOfDay string, partySize int) (bool, error) {
	if f.checkAvailabilityFn == nil {
		return true, nil
	}
	return f.checkAvailabilityFn(ctx, date, timeOfDay, partySize)
}

func (f *fnBookingStore) Insert(ctx context.Context, rec *booking.Record) error {
	if f.insertFn == nil {
		return nil
	}
	return f.insertFn(ctx, rec)
}

func (f *fnBookingStore) GetUpcoming(ctx context.Context, phone string) (*booking.Record, error) {
	if f.getUpcomingFn == nil {
		return nil, nil
	}
	return f.getUpcomingFn(ctx, phone)
}

// fnExtractor returns a fixed record or error.
type fnExtractor struct {
	rec ExtractedRecord
	err error
}

func (f *fnExtractor) Extract(_ context.Context, _ string) (ExtractedRecord, error) {
	return f.rec, f.err
}

// noopLocker satisfies TurnLocker without any real exclusion.
type noopLocker struct{}

func (noopLocker) Lock(_ context.Context, _ string) (func(), error) {
	return func() {}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
