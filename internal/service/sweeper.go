package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/minsu-hwang/event-ticket-reservation/pkg/logger"
)

// ExpiryStore selects candidate reservations for reclamation.  Implemented
// by repository.ReservationRepo.
type ExpiryStore interface {
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]uint64, error)
}

// Expirer reclaims a single reservation.  Implemented by ReservationService.
type Expirer interface {
	Expire(ctx context.Context, reservationID uint64) (bool, error)
}

// Sweeper periodically reclaims lapsed holds: it selects expired
// PENDING_PAYMENT reservations without locks, then expires each one
// individually.  The per-reservation re-check inside Expire makes the
// selection safely stale; a candidate that got paid between the scan and
// its turn is simply skipped.  Running several sweepers against the same
// database is safe for the same reason.
type Sweeper struct {
	store     ExpiryStore
	expirer   Expirer
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

// NewSweeper constructs a Sweeper.
func NewSweeper(store ExpiryStore, expirer Expirer, interval time.Duration, batchSize int) *Sweeper {
	if store == nil || expirer == nil {
		panic("nil dependency passed to NewSweeper")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Sweeper{
		store:     store,
		expirer:   expirer,
		interval:  interval,
		batchSize: batchSize,
		log:       logger.WithComponent("hold-sweeper"),
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.  Intended to be
// launched as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx, time.Now().UTC()); err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce performs a single pass and returns how many reservations it
// expired.  A failure on one reservation is logged and does not stop the
// rest of the batch; the next pass will retry whatever is still lapsed.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.FindExpiredPending(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		done, err := s.expirer.Expire(ctx, id)
		if err != nil {
			s.log.Warn("expire failed",
				zap.Uint64("reservation_id", id),
				zap.Error(err))
			continue
		}
		if done {
			expired++
		}
	}
	if expired > 0 {
		s.log.Info("sweep pass complete",
			zap.Int("candidates", len(ids)),
			zap.Int("expired", expired))
	}
	return expired, nil
}
