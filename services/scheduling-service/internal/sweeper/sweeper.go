package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/storage"
)

// Sweeper deletes lapsed holds on a fixed cadence. It is storage hygiene
// only: availability reads and the create path filter on expires_at
// themselves, so correctness never waits for a sweep.
type Sweeper struct {
	holds     *storage.HoldRepository
	logger    *slog.Logger
	interval  time.Duration
	grace     time.Duration
	batchSize int
}

type Config struct {
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

func New(holds *storage.HoldRepository, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Sweeper{
		holds:     holds,
		logger:    logger,
		interval:  cfg.Interval,
		grace:     cfg.Grace,
		batchSize: cfg.BatchSize,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.holds.SweepExpired(ctx, s.grace, s.batchSize)
			if err != nil {
				s.logger.Error("hold sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info("lapsed holds swept", "count", n)
			}
		}
	}
}
