package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/gurukitchen/hostess-api/internal/domain/booking"
)

func readyState() *State {
	s := NewState("9876543210")
	s.Collected[FieldName] = "Priya"
	s.Collected[FieldPhone] = "9876543210"
	s.Collected[FieldPartySize] = "4"
	s.Collected[FieldDate] = "2026-09-14"
	s.Collected[FieldTime] = "19:30"
	return s
}

func TestAttemptBooksAndClearsSession(t *testing.T) {
	ctx := context.Background()
	sessions := newMemStore()
	state := readyState()
	if err := sessions.Upsert(ctx, state.IdentityKey, state); err != nil {
		t.Fatal(err)
	}

	var inserted *booking.Record
	bookings := &fnBookingStore{
		insertFn: func(_ context.Context, rec *booking.Record) error {
			inserted = rec
			return nil
		},
	}
	c := NewCommitter(bookings, sessions, testLogger())

	result := c.Attempt(ctx, state)
	if result.Outcome != OutcomeBooked {
		t.Fatalf("outcome = %v, want booked", result.Outcome)
	}
	if inserted == nil {
		t.Fatal("nothing inserted")
	}
	if inserted.Phone != "9876543210" || inserted.PartySize != 4 {
		t.Errorf("record = %+v", inserted)
	}
	if inserted.SpecialRequests != DefaultSpecialRequests {
		t.Errorf("special requests = %q, want default", inserted.SpecialRequests)
	}
	if inserted.Status != booking.StatusConfirmed {
		t.Errorf("status = %q", inserted.Status)
	}
	if sessions.has(state.IdentityKey) {
		t.Error("session not cleared after booking")
	}
}

func TestAttemptSlotUnavailableDropsTime(t *testing.T) {
	state := readyState()
	state.RetryCount[FieldTime] = 2
	bookings := &fnBookingStore{
		checkAvailabilityFn: func(_ context.Context, _, _ string, _ int) (bool, error) {
			return false, nil
		},
	}
	c := NewCommitter(bookings, newMemStore(), testLogger())

	result := c.Attempt(context.Background(), state)
	if result.Outcome != OutcomeSlotUnavailable {
		t.Fatalf("outcome = %v, want slot unavailable", result.Outcome)
	}
	if result.State.Has(FieldTime) {
		t.Error("time still collected after unavailable slot")
	}
	if result.State.RetryCount[FieldTime] != 0 {
		t.Errorf("time retry count = %d, want reset", result.State.RetryCount[FieldTime])
	}
	// Everything else survives so only the time is re-collected.
	if result.State.Collected[FieldName] != "Priya" || result.State.Collected[FieldDate] != "2026-09-14" {
		t.Errorf("other fields disturbed: %v", result.State.Collected)
	}
}

func TestAttemptInvalidPhoneFailsBeforeAvailability(t *testing.T) {
	state := readyState()
	state.Collected[FieldPhone] = "12345"

	availabilityCalled := false
	bookings := &fnBookingStore{
		checkAvailabilityFn: func(_ context.Context, _, _ string, _ int) (bool, error) {
			availabilityCalled = true
			return true, nil
		},
	}
	c := NewCommitter(bookings, newMemStore(), testLogger())

	result := c.Attempt(context.Background(), state)
	if result.Outcome != OutcomeNeedValidPhone {
		t.Fatalf("outcome = %v, want need valid phone", result.Outcome)
	}
	if availabilityCalled {
		t.Error("availability checked despite invalid phone")
	}
	if result.State.Has(FieldPhone) {
		t.Error("invalid phone kept in state")
	}
}

func TestAttemptInsertFailureLeavesSessionIntact(t *testing.T) {
	ctx := context.Background()
	sessions := newMemStore()
	state := readyState()
	if err := sessions.Upsert(ctx, state.IdentityKey, state); err != nil {
		t.Fatal(err)
	}

	bookings := &fnBookingStore{
		insertFn: func(_ context.Context, _ *booking.Record) error {
			return errors.New("connection reset")
		},
	}
	c := NewCommitter(bookings, sessions, testLogger())

	result := c.Attempt(ctx, state)
	if result.Outcome != OutcomePersistFailure {
		t.Fatalf("outcome = %v, want persist failure", result.Outcome)
	}
	if !sessions.has(state.IdentityKey) {
		t.Error("session deleted despite failed insert")
	}
}

func TestAttemptSessionDeleteFailureStillBooked(t *testing.T) {
	ctx := context.Background()
	sessions := newMemStore()
	sessions.deleteErr = errors.New("redis down")
	state := readyState()

	inserts := 0
	bookings := &fnBookingStore{
		insertFn: func(_ context.Context, _ *booking.Record) error {
			inserts++
			return nil
		},
	}
	c := NewCommitter(bookings, sessions, testLogger())

	result := c.Attempt(ctx, state)
	if result.Outcome != OutcomeBooked {
		t.Fatalf("outcome = %v, want booked even when cleanup fails", result.Outcome)
	}
	if inserts != 1 {
		t.Errorf("inserts = %d, want exactly one", inserts)
	}
}
