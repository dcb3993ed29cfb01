package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically clears submissions that were never settled.
type Sweeper struct {
	target  Sweepable
	cron    *cron.Cron
	logger  *zap.SugaredLogger
	timeout time.Duration
}

// NewSweeper schedules target.Sweep on the given cron spec. Call Start to
// begin running it.
func NewSweeper(target Sweepable, schedule string, logger *zap.SugaredLogger) (*Sweeper, error) {
	s := &Sweeper{
		target:  target,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  logger,
		timeout: 30 * time.Second,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid pending sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to
// end.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.target.Sweep(ctx)
	if err != nil {
		s.logger.Errorw("pending sweep failed", "error", err, "removed", removed)
		return
	}
	if removed > 0 {
		s.logger.Infow("swept stale pending entries", "removed", removed)
	}
}
