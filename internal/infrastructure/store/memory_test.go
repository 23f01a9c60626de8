package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zerolog.Nop())

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, conversation.ErrStateNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrStateNotFound", err)
	}

	state := conversation.NewState("9876543210")
	state.Collected[conversation.FieldName] = "Priya"
	if err := s.Upsert(ctx, "9876543210", state); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "9876543210")
	if err != nil {
		t.Fatal(err)
	}
	if got.Collected[conversation.FieldName] != "Priya" {
		t.Errorf("stored fields = %v", got.Collected)
	}

	// Mutating the returned copy must not leak into the store.
	got.Collected[conversation.FieldName] = "Someone Else"
	again, err := s.Get(ctx, "9876543210")
	if err != nil {
		t.Fatal(err)
	}
	if again.Collected[conversation.FieldName] != "Priya" {
		t.Error("store value aliased to caller copy")
	}

	if err := s.Delete(ctx, "9876543210"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "9876543210"); err != nil {
		t.Errorf("double delete = %v, want nil", err)
	}
}

func TestMemoryStoreDeleteStale(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zerolog.Nop())

	fresh := conversation.NewState("fresh")
	fresh.LastInteraction = time.Now()
	stale := conversation.NewState("stale")
	stale.LastInteraction = time.Now().Add(-time.Hour)

	if err := s.Upsert(ctx, "fresh", fresh); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "stale", stale); err != nil {
		t.Fatal(err)
	}

	removed, err := s.DeleteStale(ctx, 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := s.Get(ctx, "stale"); !errors.Is(err, conversation.ErrStateNotFound) {
		t.Error("stale session survived the sweep")
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Error("fresh session swept")
	}
}

func TestMemoryLockerExcludesSameKey(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(ctx, "k1")
		if err != nil {
			panic(err)
		}
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after release")
	}
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	u1, err := l.Lock(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	defer u1()

	done := make(chan struct{})
	go func() {
		u2, err := l.Lock(ctx, "k2")
		if err != nil {
			panic(err)
		}
		u2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on unrelated key blocked")
	}
}
