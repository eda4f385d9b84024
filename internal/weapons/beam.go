package weapons

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	"github.com/medleye27/Pulsar4x/internal/dice"
	"github.com/medleye27/Pulsar4x/internal/movement"
)

// UpdateBeam advances beam by dt ending at time at. A beam that would reach
// its target within dt rolls to hit and is then marked for destruction, as
// is a beam whose target has gone.
func (c Combat) UpdateBeam(beam ecs.Entity, at time.Time, dt time.Duration) error {
	info, ok := component.BeamInfoType.Get(beam)
	if !ok {
		return nil
	}
	pos, ok := component.PositionType.Get(beam)
	if !ok {
		return fmt.Errorf("beam %s: %w", beam, ErrNoPosition)
	}
	m := beam.Manager()

	target, ok := info.Target.Entity()
	if !ok || target.Manager() != m {
		m.MarkForDestruction(beam)
		return nil
	}
	tpos, ok := component.PositionType.Get(target)
	if !ok {
		m.MarkForDestruction(beam)
		return nil
	}

	here := pos.AbsolutePosition()
	ttt := TimeToTarget(tpos.AbsolutePosition().Sub(here), info.Velocity.Length())
	if ttt > dt.Seconds() {
		step := info.Velocity.Scale(dt.Seconds())
		pos.SetAbsolutePosition(here.Add(step))
		info.Segment[0] = info.Segment[0].Add(step)
		info.Segment[1] = info.Segment[1].Add(step)
		return nil
	}

	m.MarkForDestruction(beam)
	start := at.Add(-dt)
	impact := start.Add(time.Duration(ttt * float64(time.Second)))
	aim, err := movement.FutureAbsolutePosition(target, impact)
	if err != nil {
		return fmt.Errorf("beam %s impact on %s: %w", beam, target, err)
	}
	if !dice.Roll(dice.New(at, beam.Guid(), target.Guid()), c.HitChance(info, aim, tpos.Velocity)) {
		return nil
	}
	c.applyHit(beam, info, target, at)
	return nil
}

func (c Combat) applyHit(beam ecs.Entity, info *component.BeamInfo, target ecs.Entity, at time.Time) {
	h, ok := component.HealthType.Get(target)
	if !ok || h.HP <= 0 {
		return
	}
	if !h.TakeDamage(info.Damage) {
		return
	}
	target.Manager().MarkForDestruction(target)
	if c.Bus == nil {
		return
	}
	ev := event.TargetDestroyed{
		At:       at,
		System:   c.System,
		Target:   target.Guid(),
		Attacker: info.Launcher.Guid,
	}
	if f, ok := component.OwnerOf(beam); ok {
		ev.Faction = f.Guid()
	}
	if f, ok := component.OwnerOf(target); ok {
		ev.Victim = f.Guid()
	}
	event.Emit(c.Bus, ev)
}

// UpdateBeams runs UpdateBeam over every beam in m and returns how many were
// processed.
func (c Combat) UpdateBeams(m *ecs.Manager, at time.Time, dt time.Duration) (int, error) {
	var errs []error
	n := 0
	ecs.Each2(m, component.BeamInfoType, component.PositionType, func(e ecs.Entity, _ *component.BeamInfo, _ *component.Position) {
		n++
		if err := c.UpdateBeam(e, at, dt); err != nil {
			errs = append(errs, err)
		}
	})
	return n, errors.Join(errs...)
}

// SelectTarget picks the nearest live contact of launcher's faction within
// weapon range that belongs to another faction and can take damage.
func SelectTarget(launcher ecs.Entity, w *component.BeamWeapon) (ecs.Entity, bool) {
	faction, ok := component.OwnerOf(launcher)
	if !ok {
		return ecs.Entity{}, false
	}
	fi, ok := component.FactionInfoType.Get(faction)
	if !ok {
		return ecs.Entity{}, false
	}
	pos, ok := component.PositionType.Get(launcher)
	if !ok {
		return ecs.Entity{}, false
	}
	from := pos.AbsolutePosition()

	var best ecs.Entity
	bestDist := math.Inf(1)
	for _, contact := range fi.Contacts.All() {
		target, err := ContactTarget(launcher, contact.Actual.Guid)
		if err != nil || !component.HealthType.Has(target) {
			continue
		}
		if owner, ok := component.OwnerOf(target); ok && owner.Guid() == faction.Guid() {
			continue
		}
		tpos, ok := component.PositionType.Get(target)
		if !ok {
			continue
		}
		d := from.Distance(tpos.AbsolutePosition())
		if w.Range > 0 && d > w.Range {
			continue
		}
		if d < bestDist {
			best, bestDist = target, d
		}
	}
	return best, !best.IsZero()
}

// FireReady fires every ready weapon in m. A weapon without a usable target
// picks one with SelectTarget; weapons with nothing to shoot at are skipped.
// It returns the number of beams launched.
func (c Combat) FireReady(m *ecs.Manager, at time.Time) (int, error) {
	var errs []error
	n := 0
	ecs.Each(m, component.BeamWeaponType, func(e ecs.Entity, w *component.BeamWeapon) {
		if !w.Ready(at) {
			return
		}
		if !w.Target.IsSet() || !live(e, w.Target.Guid) {
			target, ok := SelectTarget(e, w)
			if !ok {
				w.Target = component.EntityRef{}
				return
			}
			w.Target = component.RefTo(target)
		}
		if _, err := c.Fire(e, at); err != nil {
			errs = append(errs, err)
			return
		}
		n++
	})
	return n, errors.Join(errs...)
}

func live(launcher ecs.Entity, g ecs.Guid) bool {
	_, err := ContactTarget(launcher, g)
	return err == nil
}
