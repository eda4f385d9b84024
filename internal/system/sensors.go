package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
	"github.com/medleye27/Pulsar4x/internal/sensors"
)

// SensorSystem sweeps the star system's receivers and refreshes faction
// contacts. With a non-zero interval it only sweeps once that much game time
// has built up. Phase 1 (Sensors).
type SensorSystem struct {
	m        *ecs.Manager
	detector sensors.Detector
	bus      *event.Bus
	log      *zap.Logger
	interval time.Duration
	pending  time.Duration
}

func NewSensorSystem(m *ecs.Manager, det sensors.Detector, bus *event.Bus, interval time.Duration, log *zap.Logger) *SensorSystem {
	return &SensorSystem{m: m, detector: det, bus: bus, interval: interval, log: log}
}

func (s *SensorSystem) Phase() coresys.Phase { return coresys.PhaseSensors }

func (s *SensorSystem) Update(t coresys.Tick) error {
	s.pending += t.Delta
	if s.pending < s.interval {
		return nil
	}
	s.pending = 0

	n, err := sensors.Sweep(s.m, t.At, s.detector, sensors.Hooks{
		Acquired: s.acquired(t),
		Lost:     LostEmitter(s.bus),
	})
	if err != nil {
		return err
	}
	if ce := s.log.Check(zap.DebugLevel, "sensor sweep"); ce != nil {
		ce.Write(zap.String("system", s.m.Name()), zap.Int("contacts", n))
	}
	return nil
}

func (s *SensorSystem) acquired(t coresys.Tick) sensors.AcquiredFunc {
	return func(observer ecs.Entity, c *component.SensorContact) {
		if s.bus == nil {
			return
		}
		c.Lock()
		ev := event.ContactAcquired{
			At:      t.At,
			Faction: observer.Guid(),
			Target:  c.Actual.Guid,
			Name:    c.Name,
			Quality: c.Info.SignalQuality,
		}
		c.Unlock()
		event.Emit(s.bus, ev)
	}
}

// LostEmitter publishes ContactLost on bus for contacts falling back to
// memory. A nil bus gives a nil func.
func LostEmitter(bus *event.Bus) sensors.LostFunc {
	if bus == nil {
		return nil
	}
	return func(observer ecs.Entity, c *component.SensorContact) {
		c.Lock()
		ev := event.ContactLost{Faction: observer.Guid(), Target: c.Actual.Guid, Name: c.Name}
		c.Unlock()
		event.Emit(bus, ev)
	}
}
