package system

import (
	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
	"github.com/medleye27/Pulsar4x/internal/movement"
)

// NewtonIntegratorSystem steps powered flight over the tick. Register it
// before MovementSystem so positions are rewritten from fresh state.
// Phase 0 (Movement).
type NewtonIntegratorSystem struct {
	m *ecs.Manager
}

func NewNewtonIntegratorSystem(m *ecs.Manager) *NewtonIntegratorSystem {
	return &NewtonIntegratorSystem{m: m}
}

func (s *NewtonIntegratorSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *NewtonIntegratorSystem) Update(t coresys.Tick) error {
	movement.IntegrateNewton(s.m, t.Delta, t.At)
	return nil
}

// MovementSystem rewrites every Position from its movement model.
// Phase 0 (Movement).
type MovementSystem struct {
	m   *ecs.Manager
	log *zap.Logger
}

func NewMovementSystem(m *ecs.Manager, log *zap.Logger) *MovementSystem {
	return &MovementSystem{m: m, log: log}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(t coresys.Tick) error {
	n, err := movement.ProcessManager(s.m, t.At)
	if err != nil {
		return err
	}
	if ce := s.log.Check(zap.DebugLevel, "moved entities"); ce != nil {
		ce.Write(zap.String("system", s.m.Name()), zap.Int("count", n), zap.Time("at", t.At))
	}
	return nil
}
