package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetentionSweeper deletes decks older than the retention window on a ticker.
type RetentionSweeper struct {
	decks     *DeckService
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewRetentionSweeper(decks *DeckService, retention, interval time.Duration, log zerolog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		decks:     decks,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		log:       log.With().Str("component", "retention").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. A zero retention or
// interval disables it.
func (r *RetentionSweeper) Start(ctx context.Context) {
	if r.retention <= 0 || r.interval <= 0 {
		r.log.Info().Msg("retention sweep disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info().Msg("retention sweeper shutting down")
				return
			case <-ticker.C:
				if _, err := r.SweepOnce(ctx); err != nil {
					r.log.Error().Err(err).Msg("retention sweep failed")
				}
			}
		}
	}()
}

// SweepOnce removes every deck created before now minus the retention window
// and releases their unshared images. It returns how many decks went.
func (r *RetentionSweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.retention)
	removed, err := r.decks.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		r.decks.releaseUnreferenced(ctx, removed)
		r.log.Info().Int("decks", len(removed)).Time("cutoff", cutoff).Msg("expired decks removed")
	}
	return len(removed), nil
}
