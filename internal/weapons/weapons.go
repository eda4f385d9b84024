// Package weapons fires beam weapons at sensor contacts and resolves the
// beams in flight.
package weapons

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	"github.com/medleye27/Pulsar4x/internal/movement"
	"github.com/medleye27/Pulsar4x/internal/orbital"
	"github.com/medleye27/Pulsar4x/internal/scripting"
)

// BeamPulse is how long a weapon emits per shot, which sets the beam length.
const BeamPulse = time.Microsecond

var (
	ErrNoWeapon   = errors.New("entity has no beam weapon")
	ErrNotReady   = errors.New("weapon is cooling down")
	ErrNoTarget   = errors.New("weapon has no target")
	ErrNotContact = errors.New("target is not a live contact of the launcher's faction")
	ErrNoPosition = errors.New("entity has no Position")
)

// Combat carries what firing and beam resolution need from the game.
type Combat struct {
	Script *scripting.Engine // optional calc_hit_chance override
	Bus    *event.Bus        // optional; receives TargetDestroyed
	System string            // star system name stamped on events
}

// ToHitChance is the built-in hit chance: every second of flight costs
// (1-base) of certainty.
func ToHitChance(launch, target orbital.Vector3, speed, base float64) float64 {
	if speed <= 0 {
		return 0
	}
	flight := launch.Distance(target) / speed
	return math.Max(0, 1-flight*(1-base))
}

// HitChance applies the script override when one is loaded.
func (c Combat) HitChance(b *component.BeamInfo, target orbital.Vector3, targetVelocity orbital.Vector3) float64 {
	speed := b.Velocity.Length()
	if p, ok := c.Script.CalcHitChance(scripting.HitContext{
		Range:         b.LaunchPosition.Distance(target),
		BeamSpeed:     speed,
		BaseHitChance: b.BaseHitChance,
		TargetSpeed:   targetVelocity.Length(),
	}); ok {
		return p
	}
	return ToHitChance(b.LaunchPosition, target, speed, b.BaseHitChance)
}

// TimeToTarget is the flight time in seconds over vectorToTarget.
func TimeToTarget(vectorToTarget orbital.Vector3, speed float64) float64 {
	if speed <= 0 {
		return math.Inf(1)
	}
	return vectorToTarget.Length() / speed
}

// PredictTarget estimates where target will be when a projectile fired from
// from at time at reaches it.
func PredictTarget(from orbital.Vector3, at time.Time, target ecs.Entity, speed float64) (orbital.Vector3, float64, error) {
	now, err := movement.FutureAbsolutePosition(target, at)
	if err != nil {
		return orbital.Zero, 0, err
	}
	ttt := TimeToTarget(now.Sub(from), speed)
	if math.IsInf(ttt, 0) {
		return now, ttt, nil
	}
	pos, err := movement.FutureAbsolutePosition(target, at.Add(time.Duration(ttt*float64(time.Second))))
	return pos, ttt, err
}

// ContactTarget resolves g through the launcher's faction contacts. Only
// live contacts in the launcher's own star system qualify.
func ContactTarget(launcher ecs.Entity, g ecs.Guid) (ecs.Entity, error) {
	faction, ok := component.OwnerOf(launcher)
	if !ok {
		return ecs.Entity{}, ErrNotContact
	}
	fi, ok := component.FactionInfoType.Get(faction)
	if !ok {
		return ecs.Entity{}, ErrNotContact
	}
	c, ok := fi.Contacts.Get(g)
	if !ok || c.Frozen() {
		return ecs.Entity{}, ErrNotContact
	}
	c.Lock()
	target, ok := c.Actual.Entity()
	c.Unlock()
	if !ok || target.Manager() != launcher.Manager() {
		return ecs.Entity{}, ErrNotContact
	}
	return target, nil
}

// Fire launches a beam from launcher's weapon at its current target.
func (c Combat) Fire(launcher ecs.Entity, at time.Time) (ecs.Entity, error) {
	w, ok := component.BeamWeaponType.Get(launcher)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("fire %s: %w", launcher, ErrNoWeapon)
	}
	if !w.Ready(at) {
		return ecs.Entity{}, fmt.Errorf("fire %s: %w", launcher, ErrNotReady)
	}
	if !w.Target.IsSet() {
		return ecs.Entity{}, fmt.Errorf("fire %s: %w", launcher, ErrNoTarget)
	}
	target, err := ContactTarget(launcher, w.Target.Guid)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("fire %s at %s: %w", launcher, w.Target.Guid, err)
	}
	pos, ok := component.PositionType.Get(launcher)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("fire %s: %w", launcher, ErrNoPosition)
	}

	from := pos.AbsolutePosition()
	aim, _, err := PredictTarget(from, at, target, w.BeamSpeed)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("aim %s at %s: %w", launcher, target, err)
	}
	dir := aim.Sub(from).Normalize()
	info := &component.BeamInfo{
		Launcher:       component.RefTo(launcher),
		Target:         component.RefTo(target),
		LaunchPosition: from,
		Velocity:       dir.Scale(w.BeamSpeed),
		Segment:        [2]orbital.Vector3{from, from.Add(dir.Scale(BeamPulse.Seconds() * orbital.SpeedOfLight))},
		Energy:         w.Energy,
		Wavelength:     w.Wavelength,
		BaseHitChance:  w.BaseHitChance,
		Damage:         w.Damage,
	}
	blobs := []ecs.DataBlob{info, component.NewPosition(from)}
	if owner, ok := component.FactionOwnerType.Get(launcher); ok {
		blobs = append(blobs, &component.FactionOwner{Faction: owner.Faction})
	}
	beam, err := launcher.Manager().CreateEntity(blobs...)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("spawn beam for %s: %w", launcher, err)
	}
	w.ReadyAt = at.Add(w.Cooldown)
	return beam, nil
}
