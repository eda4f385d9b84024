package weapons

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	"github.com/medleye27/Pulsar4x/internal/orbital"
	"github.com/medleye27/Pulsar4x/internal/scripting"
	"github.com/medleye27/Pulsar4x/internal/sensors"
)

var t0 = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	if err := component.RegisterAll(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type battle struct {
	sol    *ecs.Manager
	blue   ecs.Entity
	red    ecs.Entity
	ship   ecs.Entity
	weapon *component.BeamWeapon
	target ecs.Entity
}

func newBattle(t *testing.T) *battle {
	t.Helper()
	dir := ecs.NewDirectory()
	global, err := ecs.NewManager("global", dir)
	require.NoError(t, err)
	sol, err := ecs.NewManager("sol", dir)
	require.NoError(t, err)

	b := &battle{sol: sol}
	b.blue, err = global.CreateEntity(component.NewFactionInfo("Blue"))
	require.NoError(t, err)
	b.red, err = global.CreateEntity(component.NewFactionInfo("Red"))
	require.NoError(t, err)

	b.weapon = &component.BeamWeapon{
		Blueprint:     "laser-10cm",
		Energy:        1e6,
		BeamSpeed:     orbital.SpeedOfLight,
		BaseHitChance: 0.95,
		Damage:        50,
		Range:         1e9,
		Cooldown:      10 * time.Second,
	}
	b.ship, err = sol.CreateEntity(
		component.NewPosition(orbital.Zero),
		&component.FactionOwner{Faction: component.RefTo(b.blue)},
		b.weapon,
	)
	require.NoError(t, err)
	b.target, err = sol.CreateEntity(
		component.NewPosition(orbital.V(1e6, 0, 0)),
		&component.FactionOwner{Faction: component.RefTo(b.red)},
		component.NewHealth(40, 0),
	)
	require.NoError(t, err)
	return b
}

func (b *battle) spot(t *testing.T, e ecs.Entity) {
	t.Helper()
	_, err := sensors.Create(b.blue, e, t0, 1)
	require.NoError(t, err)
}

func always(t *testing.T, chance string) *scripting.Engine {
	t.Helper()
	eng, err := scripting.NewEngineFromSource(nil, `function calc_hit_chance(ctx) return `+chance+` end`)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

func TestToHitChance(t *testing.T) {
	c := orbital.SpeedOfLight
	assert.Equal(t, 1.0, ToHitChance(orbital.Zero, orbital.Zero, c, 0.5))
	assert.InDelta(t, 0.95, ToHitChance(orbital.Zero, orbital.V(c, 0, 0), c, 0.95), 1e-12)
	assert.InDelta(t, 0.5, ToHitChance(orbital.Zero, orbital.V(0, 10*c, 0), c, 0.95), 1e-12)
	assert.Equal(t, 0.0, ToHitChance(orbital.Zero, orbital.V(100*c, 0, 0), c, 0.95))
	assert.Equal(t, 0.0, ToHitChance(orbital.Zero, orbital.V(1, 0, 0), 0, 0.95))
}

func TestFireNeedsContact(t *testing.T) {
	b := newBattle(t)
	b.weapon.Target = component.RefTo(b.target)

	_, err := Combat{}.Fire(b.ship, t0)
	assert.ErrorIs(t, err, ErrNotContact)

	b.spot(t, b.target)
	beam, err := Combat{}.Fire(b.ship, t0)
	require.NoError(t, err)

	info := component.BeamInfoType.Must(beam)
	assert.Equal(t, b.target, mustEntity(t, &info.Target))
	assert.InDelta(t, orbital.SpeedOfLight, info.Velocity.X, 1e-6)
	assert.InDelta(t, 0, info.Velocity.Y, 1e-9)
	assert.Equal(t, 50.0, info.Damage)
	assert.Equal(t, t0.Add(10*time.Second), b.weapon.ReadyAt)
	owner, ok := component.OwnerOf(beam)
	require.True(t, ok)
	assert.Equal(t, b.blue, owner)

	_, err = Combat{}.Fire(b.ship, t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestFireWithoutWeaponOrTarget(t *testing.T) {
	b := newBattle(t)
	_, err := Combat{}.Fire(b.target, t0)
	assert.ErrorIs(t, err, ErrNoWeapon)
	_, err = Combat{}.Fire(b.ship, t0)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestBeamTravelsUntilInReach(t *testing.T) {
	b := newBattle(t)
	b.spot(t, b.target)
	b.weapon.Target = component.RefTo(b.target)
	beam, err := Combat{}.Fire(b.ship, t0)
	require.NoError(t, err)

	dt := time.Millisecond
	require.NoError(t, Combat{}.UpdateBeam(beam, t0.Add(dt), dt))
	pos := component.PositionType.Must(beam)
	assert.InDelta(t, orbital.SpeedOfLight*dt.Seconds(), pos.AbsolutePosition().X, 1e-6)
	assert.Equal(t, 0, b.sol.PendingDestruction())
}

func TestBeamHitDestroysTarget(t *testing.T) {
	b := newBattle(t)
	b.spot(t, b.target)
	b.weapon.Target = component.RefTo(b.target)

	bus := event.NewBus()
	var destroyed []event.TargetDestroyed
	event.Subscribe(bus, func(ev event.TargetDestroyed) { destroyed = append(destroyed, ev) })
	combat := Combat{Script: always(t, "1"), Bus: bus, System: "sol"}

	beam, err := combat.Fire(b.ship, t0)
	require.NoError(t, err)
	n, err := combat.UpdateBeams(b.sol, t0.Add(time.Second), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.LessOrEqual(t, component.HealthType.Must(b.target).HP, 0.0)

	assert.Equal(t, 2, b.sol.FlushDestroyQueue())
	assert.False(t, beam.IsValid())
	assert.False(t, b.target.IsValid())

	c, ok := component.FactionInfoType.Must(b.blue).Contacts.Get(b.target.Guid())
	require.True(t, ok)
	assert.True(t, c.Frozen())

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, destroyed, 1)
	assert.Equal(t, b.target.Guid(), destroyed[0].Target)
	assert.Equal(t, b.ship.Guid(), destroyed[0].Attacker)
	assert.Equal(t, b.blue.Guid(), destroyed[0].Faction)
	assert.Equal(t, "sol", destroyed[0].System)
}

func TestBeamMiss(t *testing.T) {
	b := newBattle(t)
	b.spot(t, b.target)
	b.weapon.Target = component.RefTo(b.target)
	combat := Combat{Script: always(t, "0")}

	beam, err := combat.Fire(b.ship, t0)
	require.NoError(t, err)
	require.NoError(t, combat.UpdateBeam(beam, t0.Add(time.Second), time.Second))
	assert.Equal(t, 40.0, component.HealthType.Must(b.target).HP)
	assert.Equal(t, 1, b.sol.FlushDestroyQueue())
	assert.False(t, beam.IsValid())
	assert.True(t, b.target.IsValid())
}

func TestBeamDissipatesWhenTargetGone(t *testing.T) {
	b := newBattle(t)
	b.spot(t, b.target)
	b.weapon.Target = component.RefTo(b.target)
	beam, err := Combat{}.Fire(b.ship, t0)
	require.NoError(t, err)

	require.NoError(t, b.sol.DestroyEntity(b.target))
	require.NoError(t, Combat{}.UpdateBeam(beam, t0.Add(time.Millisecond), time.Millisecond))
	assert.Equal(t, 1, b.sol.FlushDestroyQueue())
	assert.False(t, beam.IsValid())
}

func TestFireReadySelectsNearestHostileContact(t *testing.T) {
	b := newBattle(t)
	far, err := b.sol.CreateEntity(
		component.NewPosition(orbital.V(5e6, 0, 0)),
		&component.FactionOwner{Faction: component.RefTo(b.red)},
		component.NewHealth(10, 0),
	)
	require.NoError(t, err)
	friend, err := b.sol.CreateEntity(
		component.NewPosition(orbital.V(10, 0, 0)),
		&component.FactionOwner{Faction: component.RefTo(b.blue)},
		component.NewHealth(10, 0),
	)
	require.NoError(t, err)

	n, err := Combat{}.FireReady(b.sol, t0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	b.spot(t, far)
	b.spot(t, friend)
	b.spot(t, b.target)
	n, err = Combat{}.FireReady(b.sol, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, b.target.Guid(), b.weapon.Target.Guid)
	assert.Len(t, component.BeamInfoType.Entities(b.sol), 1)

	n, err = Combat{}.FireReady(b.sol, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func mustEntity(t *testing.T, r *component.EntityRef) ecs.Entity {
	t.Helper()
	e, ok := r.Entity()
	require.True(t, ok)
	return e
}

func TestShippedHitChanceScriptMatchesBuiltin(t *testing.T) {
	script, err := scripting.NewEngine("../../scripts", nil)
	require.NoError(t, err)
	defer script.Close()
	require.True(t, script.Has("calc_hit_chance"))

	c := orbital.SpeedOfLight
	combat := Combat{Script: script}
	for _, target := range []orbital.Vector3{orbital.Zero, orbital.V(c, 0, 0), orbital.V(0, 10*c, 0), orbital.V(100*c, 0, 0)} {
		beam := &component.BeamInfo{Velocity: orbital.V(c, 0, 0), BaseHitChance: 0.95}
		assert.InDelta(t, ToHitChance(orbital.Zero, target, c, 0.95), combat.HitChance(beam, target, orbital.Zero), 1e-9)
	}
}
