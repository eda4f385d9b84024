package system

import (
	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	m   *ecs.Manager
	log *zap.Logger
}

func NewCleanupSystem(m *ecs.Manager, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{m: m, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ coresys.Tick) error {
	if n := s.m.FlushDestroyQueue(); n > 0 {
		s.log.Debug("destroyed entities", zap.String("system", s.m.Name()), zap.Int("count", n))
	}
	return nil
}
