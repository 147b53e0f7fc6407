package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	sweepBatchSize = 200
	sweepTimeout   = 2 * time.Minute
)

type PendingSettler interface {
	SettlePending(ctx context.Context, limit int) (int, error)
}

// SettlementSweep settles completed payments that are still missing a
// split, e.g. because no rule matched when they arrived.
type SettlementSweep struct {
	settler PendingSettler
	logger  zerolog.Logger
	mu      sync.Mutex
}

func NewSettlementSweep(settler PendingSettler, logger zerolog.Logger) *SettlementSweep {
	return &SettlementSweep{
		settler: settler,
		logger:  logger.With().Str("job", "settlement_sweep").Logger(),
	}
}

// Run is the cron entry point. Overlapping ticks are skipped.
func (s *SettlementSweep) Run() {
	if !s.mu.TryLock() {
		s.logger.Debug().Msg("previous sweep still running, skipping")
		return
	}
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	settled, err := s.settler.SettlePending(ctx, sweepBatchSize)
	if err != nil {
		s.logger.Warn().Err(err).Int("settled", settled).Msg("settlement sweep finished with errors")
		return
	}
	if settled == 0 {
		s.logger.Debug().Msg("no unsettled payments found")
		return
	}
	s.logger.Info().Int("settled", settled).Msg("settlement sweep completed")
}

func (s *SettlementSweep) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, s.Run)
	return err
}
