package lobby

import (
	"context"
	"time"

	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
)

const DefaultSweepInterval = time.Minute

// Sweeper runs Engine.Sweep on a fixed interval until its context is
// cancelled. Each tick is a full scan.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	logger   logging.Logger
}

func NewSweeper(engine *Engine, interval time.Duration, logger logging.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(logging.Sweeper, logging.Startup, "sweeper started", map[logging.ExtraKey]any{
		"Interval": s.interval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(logging.Sweeper, logging.Shutdown, "sweeper stopped", nil)
			return nil
		case <-ticker.C:
			removed := s.engine.Sweep(ctx)
			s.logger.Debug(logging.Sweeper, logging.Expire, "sweep finished", map[logging.ExtraKey]any{
				"Removed":   removed,
				"Remaining": s.engine.RoomCount(),
			})
		}
	}
}
