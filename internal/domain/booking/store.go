package booking

import "context"

// Store persists reservations and answers slot-capacity queries.
//
// Insert must be atomic with the capacity bump for the target slot: either
// the reservation lands and the slot's booked capacity moves, or neither
// happens.
type Store interface {
	// CheckAvailability reports whether the (date, time) slot exists and
	// can still take a party of the given size.
	CheckAvailability(ctx context.Context, date, timeOfDay string, partySize int) (bool, error)

	// Insert stores a new reservation.
	Insert(ctx context.Context, rec *Record) error

	// GetUpcoming returns the caller's earliest pending or confirmed
	// reservation on or after today, or nil when there is none.
	GetUpcoming(ctx context.Context, phone string) (*Record, error)
}
