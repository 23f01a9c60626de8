package entities

import (
	"time"

	"github.com/gurukitchen/hostess-api/internal/domain/booking"
)

// Booking is the database schema for reservations.
type Booking struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Phone           string         `gorm:"type:varchar(20);index:idx_booking_phone_date;not null"`
	Name            string         `gorm:"type:varchar(120);not null"`
	PartySize       int            `gorm:"not null"`
	BookingDate     string         `gorm:"type:varchar(10);index:idx_booking_phone_date;index:idx_booking_slot;not null"`
	BookingTime     string         `gorm:"type:varchar(5);index:idx_booking_slot;not null"`
	SpecialRequests string         `gorm:"type:text;not null;default:'None'"`
	Status          booking.Status `gorm:"type:varchar(20);not null;default:'confirmed'"`
}

// TableName specifies the table name for Booking.
func (Booking) TableName() string {
	return "bookings"
}

// ToDomain converts the row into the domain record.
func (b *Booking) ToDomain() *booking.Record {
	return &booking.Record{
		ID:              b.ID,
		Phone:           b.Phone,
		Name:            b.Name,
		PartySize:       b.PartySize,
		BookingDate:     b.BookingDate,
		BookingTime:     b.BookingTime,
		SpecialRequests: b.SpecialRequests,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
	}
}

// NewBooking converts a domain record into its row form.
func NewBooking(rec *booking.Record) *Booking {
	return &Booking{
		Phone:           rec.Phone,
		Name:            rec.Name,
		PartySize:       rec.PartySize,
		BookingDate:     rec.BookingDate,
		BookingTime:     rec.BookingTime,
		SpecialRequests: rec.SpecialRequests,
		Status:          rec.Status,
	}
}

// TimeSlot is the capacity ledger for one bookable (date, time) pair.
// BookedCapacity only moves inside the booking insert transaction.
type TimeSlot struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	BookingDate    string `gorm:"type:varchar(10);uniqueIndex:idx_time_slot;not null"`
	BookingTime    string `gorm:"type:varchar(5);uniqueIndex:idx_time_slot;not null"`
	TableCapacity  int    `gorm:"not null"`
	BookedCapacity int    `gorm:"not null;default:0"`
}

// TableName specifies the table name for TimeSlot.
func (TimeSlot) TableName() string {
	return "time_slots"
}

// ToDomain converts the row into the domain slot view.
func (t *TimeSlot) ToDomain() booking.Slot {
	return booking.Slot{
		BookingDate:    t.BookingDate,
		BookingTime:    t.BookingTime,
		TableCapacity:  t.TableCapacity,
		BookedCapacity: t.BookedCapacity,
	}
}
