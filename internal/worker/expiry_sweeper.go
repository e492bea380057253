package worker

import (
	"context"
	"time"

	"pharmacyos/internal/infra"
	"pharmacyos/internal/repository"

	"github.com/rs/zerolog/log"
)

// ExpirySweeper periodically flips batches past their expiry date to expired
// so they drop out of FEFO allocation.
type ExpirySweeper struct {
	batches  repository.BatchRepository
	interval time.Duration
	now      func() time.Time
}

func NewExpirySweeper(batches repository.BatchRepository, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirySweeper{batches: batches, interval: interval, now: time.Now}
}

// Start runs one sweep immediately, then one per interval until ctx is done.
func (s *ExpirySweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", s.interval).Msg("expiry_sweeper: started")
		s.Sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_sweeper: shutting down")
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep marks every active or low_stock batch that expired before today.
// A batch expiring today is still sellable.
func (s *ExpirySweeper) Sweep(ctx context.Context) int64 {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	n, err := s.batches.MarkExpired(ctx, today)
	if err != nil {
		log.Error().Err(err).Msg("expiry_sweeper: update failed")
		return 0
	}
	if n > 0 {
		infra.BatchesExpired.Add(float64(n))
		log.Info().Int64("batches", n).Msg("expiry_sweeper: batches expired")
	}
	return n
}
