package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gurukitchen/hostess-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the booking domain.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Booking{},
		&entities.TimeSlot{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
