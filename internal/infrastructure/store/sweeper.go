package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"
)

const sweepJobTimeout = time.Minute

// StaleDeleter is the sweep surface of a conversation store. RedisStore
// does not implement it: Redis expiry reaps idle sessions on its own.
type StaleDeleter interface {
	DeleteStale(ctx context.Context, ttl time.Duration) (int, error)
}

// Sweeper reaps conversations idle for longer than the session TTL.
// Abandoned calls would otherwise pin their state forever in the in-memory
// store.
type Sweeper struct {
	ctab     *crontab.Crontab
	store    StaleDeleter
	ttl      time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a sweeper reaping sessions idle longer than ttl,
// checking every interval minutes.
func NewSweeper(store StaleDeleter, ttl, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		ctab:     crontab.New(),
		store:    store,
		ttl:      ttl,
		interval: interval,
		log:      log.With().Str("component", "session-sweeper").Logger(),
	}
}

// Run sweeps once immediately, then on the cron schedule until ctx is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.sweep(ctx)

	minutes := int(s.interval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	expr := fmt.Sprintf("*/%d * * * *", minutes)
	if err := s.ctab.AddJob(expr, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), sweepJobTimeout)
		defer cancel()
		s.sweep(jobCtx)
	}); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.log.Info().Str("schedule", expr).Dur("ttl", s.ttl).Msg("session sweeper started")

	<-ctx.Done()
	s.ctab.Shutdown()
	s.log.Info().Msg("session sweeper stopped")
	return nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.DeleteStale(ctx, s.ttl)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("stale sessions swept")
	}
}
