package system

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
	"github.com/medleye27/Pulsar4x/internal/orbital"
	"github.com/medleye27/Pulsar4x/internal/sensors"
	"github.com/medleye27/Pulsar4x/internal/weapons"
)

var t0 = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	if err := component.RegisterAll(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type scene struct {
	sol    *ecs.Manager
	bus    *event.Bus
	blue   ecs.Entity
	sun    ecs.Entity
	planet ecs.Entity
	runner *coresys.Runner
}

func newScene(t *testing.T, sensorInterval time.Duration) *scene {
	t.Helper()
	log := zap.NewNop()
	dir := ecs.NewDirectory()
	global, err := ecs.NewManager("global", dir)
	require.NoError(t, err)
	sol, err := ecs.NewManager("sol", dir)
	require.NoError(t, err)

	s := &scene{sol: sol, bus: event.NewBus()}
	s.blue, err = global.CreateEntity(component.NewFactionInfo("Blue"))
	require.NoError(t, err)
	s.sun, err = sol.CreateEntity(
		component.NewPosition(orbital.Zero),
		&component.MassVolume{Mass: orbital.SolarMass},
		&component.SensorProfile{Emission: 3.8e26},
		component.NewName("Sol"),
	)
	require.NoError(t, err)
	s.planet, err = sol.CreateEntity(
		component.NewOrbit(s.sun, orbital.EarthMass, orbital.CircularOrbit(0, orbital.AU, t0)),
		&component.MassVolume{Mass: orbital.EarthMass},
		&component.SensorProfile{Reflectivity: 0.3, CrossSection: 1.3e14},
		component.NewName("Earth"),
	)
	require.NoError(t, err)
	_, err = sol.CreateEntity(
		component.NewPosition(orbital.V(orbital.AU, 1e8, 0)),
		&component.FactionOwner{Faction: component.RefTo(s.blue)},
		&component.SensorReceiver{Sensitivity: 1e-6},
	)
	require.NoError(t, err)

	combat := weapons.Combat{Bus: s.bus, System: "sol"}
	s.runner = coresys.NewRunner()
	s.runner.Register(NewCleanupSystem(sol, log))
	s.runner.Register(NewSensorSystem(sol, sensors.Detector{}, s.bus, sensorInterval, log))
	s.runner.Register(NewNewtonIntegratorSystem(sol))
	s.runner.Register(NewMovementSystem(sol, log))
	s.runner.Register(NewWeaponSystem(sol, combat, log))
	s.runner.Register(NewBeamSystem(sol, combat))
	return s
}

func (s *scene) contacts() *component.ContactTable {
	return component.FactionInfoType.Must(s.blue).Contacts
}

func TestTickMovesThenSenses(t *testing.T) {
	s := newScene(t, 0)
	var acquired []string
	event.Subscribe(s.bus, func(ev event.ContactAcquired) { acquired = append(acquired, ev.Name) })

	at := t0.Add(24 * time.Hour)
	require.NoError(t, s.runner.Tick(coresys.Tick{At: at, Delta: 24 * time.Hour, Number: 1}))

	pos := component.PositionType.Must(s.planet)
	want, _, err := orbital.StateVectors(component.OrbitType.Must(s.planet).Elements, at)
	require.NoError(t, err)
	assert.Equal(t, want, pos.RelativePosition())

	assert.Equal(t, 2, s.contacts().Len())
	c, ok := s.contacts().Get(s.planet.Guid())
	require.True(t, ok)
	assert.Equal(t, at, c.Info.DetectedAt)

	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	assert.ElementsMatch(t, []string{"Sol", "Earth"}, acquired)
}

func TestSensorInterval(t *testing.T) {
	s := newScene(t, time.Hour)
	tick := func(n uint64, d time.Duration) {
		require.NoError(t, s.runner.Tick(coresys.Tick{At: t0.Add(d), Delta: 30 * time.Minute, Number: n}))
	}
	tick(1, 30*time.Minute)
	assert.Equal(t, 0, s.contacts().Len())
	tick(2, time.Hour)
	assert.Equal(t, 2, s.contacts().Len())
}

func TestContactLostEvent(t *testing.T) {
	s := newScene(t, 0)
	var lost []ecs.Guid
	event.Subscribe(s.bus, func(ev event.ContactLost) { lost = append(lost, ev.Target) })

	require.NoError(t, s.runner.Tick(coresys.Tick{At: t0, Delta: time.Minute, Number: 1}))
	s.sol.MarkForDestruction(s.planet)
	require.NoError(t, s.runner.Tick(coresys.Tick{At: t0.Add(time.Minute), Delta: time.Minute, Number: 2}))

	assert.False(t, s.planet.IsValid())
	c, ok := s.contacts().Get(s.planet.Guid())
	require.True(t, ok)
	assert.True(t, c.Frozen())

	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	assert.Equal(t, []ecs.Guid{s.planet.Guid()}, lost)
}

func TestEventDispatchSystem(t *testing.T) {
	bus := event.NewBus()
	n := 0
	event.Subscribe(bus, func(event.TargetDestroyed) { n++ })
	event.Emit(bus, event.TargetDestroyed{})

	sys := NewEventDispatchSystem(bus, zap.NewNop())
	assert.Equal(t, coresys.PhaseEvents, sys.Phase())
	require.NoError(t, sys.Update(coresys.Tick{}))
	assert.Equal(t, 1, n)
}

type countingSaver struct {
	calls int
	err   error
}

func (s *countingSaver) Save(ctx context.Context) error {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	return s.err
}

func TestAutosave(t *testing.T) {
	saver := &countingSaver{}
	sys := NewAutosaveSystem(saver, 2*time.Hour, 0, zap.NewNop())
	tick := coresys.Tick{Delta: time.Hour}

	require.NoError(t, sys.Update(tick))
	assert.Equal(t, 0, saver.calls)
	require.NoError(t, sys.Update(tick))
	assert.Equal(t, 1, saver.calls)
	require.NoError(t, sys.Update(tick))
	assert.Equal(t, 1, saver.calls)

	saver.err = errors.New("db down")
	require.NoError(t, sys.Update(tick))
	require.NoError(t, sys.Update(tick))
	assert.Equal(t, 3, saver.calls)
}
