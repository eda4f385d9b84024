package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
)

// Saver writes a full save of the game.
type Saver interface {
	Save(ctx context.Context) error
}

// AutosaveSystem saves the game every interval of game time. A failed save
// is logged and retried on the next tick. Phase 4 (Cleanup), game-level.
type AutosaveSystem struct {
	saver    Saver
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	pending  time.Duration
}

func NewAutosaveSystem(saver Saver, interval, timeout time.Duration, log *zap.Logger) *AutosaveSystem {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AutosaveSystem{saver: saver, interval: interval, timeout: timeout, log: log}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *AutosaveSystem) Update(t coresys.Tick) error {
	if s.interval <= 0 {
		return nil
	}
	s.pending += t.Delta
	if s.pending < s.interval {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.saver.Save(ctx); err != nil {
		s.log.Error("autosave failed", zap.Time("at", t.At), zap.Error(err))
		return nil
	}
	s.pending = 0
	s.log.Info("autosave complete", zap.Time("at", t.At))
	return nil
}
