package system

import (
	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
	"github.com/medleye27/Pulsar4x/internal/weapons"
)

// WeaponSystem fires every ready beam weapon at a sensor contact.
// Phase 2 (Weapons).
type WeaponSystem struct {
	m      *ecs.Manager
	combat weapons.Combat
	log    *zap.Logger
}

func NewWeaponSystem(m *ecs.Manager, combat weapons.Combat, log *zap.Logger) *WeaponSystem {
	return &WeaponSystem{m: m, combat: combat, log: log}
}

func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseWeapons }

func (s *WeaponSystem) Update(t coresys.Tick) error {
	n, err := s.combat.FireReady(s.m, t.At)
	if n > 0 {
		s.log.Debug("beams fired", zap.String("system", s.m.Name()), zap.Int("count", n))
	}
	return err
}

// BeamSystem moves beams in flight and resolves the ones that arrive.
// Phase 2 (Weapons), registered after WeaponSystem so new beams fly at once.
type BeamSystem struct {
	m      *ecs.Manager
	combat weapons.Combat
}

func NewBeamSystem(m *ecs.Manager, combat weapons.Combat) *BeamSystem {
	return &BeamSystem{m: m, combat: combat}
}

func (s *BeamSystem) Phase() coresys.Phase { return coresys.PhaseWeapons }

func (s *BeamSystem) Update(t coresys.Tick) error {
	_, err := s.combat.UpdateBeams(s.m, t.At, t.Delta)
	return err
}
