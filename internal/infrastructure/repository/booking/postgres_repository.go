package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/gurukitchen/hostess-api/internal/domain/booking"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/database/entities"
	"github.com/gurukitchen/hostess-api/internal/utils/platformerrors"
)

// Repository persists reservations and the per-slot capacity ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a booking repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CheckAvailability reports whether the (date, time) slot can still take a
// party of the given size. An unknown slot is unavailable: the restaurant
// only serves at seeded times.
func (r *Repository) CheckAvailability(ctx context.Context, date, timeOfDay string, partySize int) (bool, error) {
	var slot entities.TimeSlot
	err := r.db.WithContext(ctx).
		Where("booking_date = ? AND booking_time = ?", date, timeOfDay).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load time slot",
			err,
			"slot-load-db-error",
		)
	}
	return slot.ToDomain().Fits(partySize), nil
}

// Insert stores a reservation and bumps the slot's booked capacity in one
// transaction. The slot row is locked for the duration, so two concurrent
// inserts cannot both squeeze into the last seats.
func (r *Repository) Insert(ctx context.Context, rec *domain.Record) error {
	entity := entities.NewBooking(rec)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot entities.TimeSlot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("booking_date = ? AND booking_time = ?", rec.BookingDate, rec.BookingTime).
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no slot at %s %s", rec.BookingDate, rec.BookingTime)
		}
		if err != nil {
			return err
		}
		if !slot.ToDomain().Fits(rec.PartySize) {
			return fmt.Errorf("slot at %s %s cannot take %d", rec.BookingDate, rec.BookingTime, rec.PartySize)
		}

		slot.BookedCapacity += rec.PartySize
		if err := tx.Save(&slot).Error; err != nil {
			return err
		}
		return tx.Create(entity).Error
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to insert booking",
			err,
			"booking-insert-db-error",
		)
	}

	rec.ID = entity.ID
	rec.CreatedAt = entity.CreatedAt
	return nil
}

// GetUpcoming returns the caller's earliest pending or confirmed booking on
// or after today, or nil when there is none.
func (r *Repository) GetUpcoming(ctx context.Context, phone string) (*domain.Record, error) {
	today := time.Now().Format("2006-01-02")

	var entity entities.Booking
	err := r.db.WithContext(ctx).
		Where("phone = ? AND booking_date >= ? AND status IN ?",
			phone, today, []domain.Status{domain.StatusPending, domain.StatusConfirmed}).
		Order("booking_date ASC, booking_time ASC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load upcoming booking",
			err,
			"booking-upcoming-db-error",
		)
	}
	return entity.ToDomain(), nil
}

// SeedSlots creates missing time slot rows for the given dates and times,
// leaving existing rows untouched. Used at startup so a fresh database is
// immediately bookable.
func (r *Repository) SeedSlots(ctx context.Context, dates, times []string, tableCapacity int) error {
	for _, d := range dates {
		for _, t := range times {
			slot := entities.TimeSlot{
				BookingDate:   d,
				BookingTime:   t,
				TableCapacity: tableCapacity,
			}
			err := r.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&slot).Error
			if err != nil {
				return platformerrors.NewError(
					ctx,
					platformerrors.LayerRepository,
					platformerrors.ErrorTypeDatabaseError,
					"failed to seed time slot",
					err,
					"slot-seed-db-error",
				)
			}
		}
	}
	return nil
}
