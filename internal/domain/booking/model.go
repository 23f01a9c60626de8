package booking

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Record is a confirmed table reservation. It is created exactly once per
// completed conversation and never mutated by the conversation core.
type Record struct {
	ID              uint      `json:"-"`
	Phone           string    `json:"phone"`
	Name            string    `json:"name"`
	PartySize       int       `json:"party_size"`
	BookingDate     string    `json:"booking_date"` // YYYY-MM-DD
	BookingTime     string    `json:"booking_time"` // HH:MM, 24 hour
	SpecialRequests string    `json:"special_requests"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Slot is the read-only capacity view for one (date, time) pair. The
// conversation core only queries it; booked capacity moves on insert,
// inside the store.
type Slot struct {
	BookingDate    string `json:"booking_date"`
	BookingTime    string `json:"booking_time"`
	TableCapacity  int    `json:"table_capacity"`
	BookedCapacity int    `json:"booked_capacity"`
}

// Fits reports whether the slot can still take a party of the given size.
func (s Slot) Fits(partySize int) bool {
	return s.TableCapacity-s.BookedCapacity >= partySize
}
