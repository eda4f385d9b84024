package system

import (
	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/core/event"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
)

// EventDispatchSystem delivers the events star systems emitted during the
// tick. It belongs to the game-level runner, which runs on one goroutine
// after every star system has finished. Phase 3 (Events).
type EventDispatchSystem struct {
	bus *event.Bus
	log *zap.Logger
}

func NewEventDispatchSystem(bus *event.Bus, log *zap.Logger) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus, log: log}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventDispatchSystem) Update(t coresys.Tick) error {
	s.bus.SwapBuffers()
	if n := s.bus.DispatchAll(); n > 0 {
		s.log.Debug("dispatched events", zap.Int("count", n), zap.Uint64("tick", t.Number))
	}
	return nil
}
