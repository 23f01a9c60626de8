package conversation

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/booking"
)

// Outcome classifies a commit attempt.
type Outcome string

const (
	// OutcomeBooked means the reservation was inserted and the session
	// cleared.
	OutcomeBooked Outcome = "booked"
	// OutcomeSlotUnavailable means the requested slot cannot take the
	// party; the caller should pick a different time.
	OutcomeSlotUnavailable Outcome = "slot_unavailable"
	// OutcomePersistFailure means a store write failed; state is left
	// intact so the commit can be retried next turn.
	OutcomePersistFailure Outcome = "persist_failure"
	// OutcomeNeedValidPhone means the phone in state failed re-validation
	// immediately before commit; the engine must go back to asking for it.
	OutcomeNeedValidPhone Outcome = "need_valid_phone"
)

// CommitResult is the outcome of one commit attempt, with the inserted
// record on success and the state the orchestrator should persist when the
// attempt fell through recoverable paths.
type CommitResult struct {
	Outcome Outcome
	Record  *booking.Record
	// State is the post-attempt conversation state for non-booked
	// outcomes: on SlotUnavailable the time field has been dropped and its
	// retry counter reset, on NeedValidPhone the phone entry has been
	// removed. Nil when Outcome is Booked (the session is gone) or
	// PersistFailure (the input state must survive unchanged).
	State *State
}

// Committer performs the at-most-once booking insert for a fully populated
// conversation state.
type Committer struct {
	bookings booking.Store
	sessions SessionStore
	log      zerolog.Logger
}

// NewCommitter creates a booking committer.
func NewCommitter(bookings booking.Store, sessions SessionStore, log zerolog.Logger) *Committer {
	return &Committer{
		bookings: bookings,
		sessions: sessions,
		log:      log.With().Str("component", "booking-committer").Logger(),
	}
}

// Attempt validates, checks availability and inserts the reservation.
// The phone is re-validated immediately before commit even though Merge
// never writes an invalid one: state may be stale or raced, and the phone
// is the record's primary key. On success the conversation state for the
// owning identity is deleted, closing the session.
func (c *Committer) Attempt(ctx context.Context, state *State) CommitResult {
	phone := state.Collected[FieldPhone]
	if !IsValidPhone(phone) {
		out := state.Clone()
		delete(out.Collected, FieldPhone)
		out.RetryCount[FieldPhone] = 0
		c.log.Warn().Str("identity", state.IdentityKey).Msg("phone failed pre-commit re-validation")
		return CommitResult{Outcome: OutcomeNeedValidPhone, State: out}
	}

	date := state.Collected[FieldDate]
	timeOfDay := state.Collected[FieldTime]
	partySize, err := strconv.Atoi(state.Collected[FieldPartySize])
	if err != nil || partySize <= 0 {
		c.log.Error().Err(err).Str("identity", state.IdentityKey).Msg("party size corrupted in state")
		return CommitResult{Outcome: OutcomePersistFailure}
	}

	available, err := c.bookings.CheckAvailability(ctx, date, timeOfDay, partySize)
	if err != nil {
		c.log.Error().Err(err).Msg("availability check failed")
		return CommitResult{Outcome: OutcomePersistFailure}
	}
	if !available {
		out := state.Clone()
		delete(out.Collected, FieldTime)
		out.RetryCount[FieldTime] = 0
		c.log.Info().Str("date", date).Str("time", timeOfDay).Int("party_size", partySize).Msg("slot unavailable")
		return CommitResult{Outcome: OutcomeSlotUnavailable, State: out}
	}

	special := state.Collected[FieldSpecialRequests]
	if special == "" {
		special = DefaultSpecialRequests
	}
	rec := &booking.Record{
		Phone:           phone,
		Name:            state.Collected[FieldName],
		PartySize:       partySize,
		BookingDate:     date,
		BookingTime:     timeOfDay,
		SpecialRequests: special,
		Status:          booking.StatusConfirmed,
	}

	if err := c.bookings.Insert(ctx, rec); err != nil {
		c.log.Error().Err(err).Msg("booking insert failed")
		return CommitResult{Outcome: OutcomePersistFailure}
	}

	// The reservation exists from here on. A failed session delete leaves a
	// stale record behind for the TTL sweep, never a duplicate booking.
	if err := c.sessions.Delete(ctx, state.IdentityKey); err != nil {
		c.log.Warn().Err(err).Str("identity", state.IdentityKey).Msg("session cleanup after booking failed")
	}

	c.log.Info().
		Str("phone", phone).
		Str("date", date).
		Str("time", timeOfDay).
		Int("party_size", partySize).
		Msg("booking committed")
	return CommitResult{Outcome: OutcomeBooked, Record: rec}
}
