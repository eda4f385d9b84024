package component

import (
	"time"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// BeamWeapon is a beam mount on a ship.
type BeamWeapon struct {
	ecs.Blob
	Blueprint     string        `json:"blueprint"`
	Energy        float64       `json:"energy"`     // J per shot
	Wavelength    float64       `json:"wavelength"` // m
	BeamSpeed     float64       `json:"beamSpeed"`  // m/s
	BaseHitChance float64       `json:"baseHitChance"`
	Damage        float64       `json:"damage"`
	Range         float64       `json:"range"` // m
	Cooldown      time.Duration `json:"cooldown"`
	ReadyAt       time.Time     `json:"readyAt"`
	Target        EntityRef     `json:"target"`
}

func (*BeamWeapon) BlobType() ecs.TypeKey { return BeamWeaponType }

func (w *BeamWeapon) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return w.Target.Resolve(find)
}

// Ready reports whether the weapon may fire at at.
func (w *BeamWeapon) Ready(at time.Time) bool { return !at.Before(w.ReadyAt) }

// BeamInfo is a beam in flight. Its entity also carries a Position.
type BeamInfo struct {
	ecs.Blob
	Launcher       EntityRef          `json:"launcher"`
	Target         EntityRef          `json:"target"`
	LaunchPosition orbital.Vector3    `json:"launchPosition"`
	Velocity       orbital.Vector3    `json:"velocity"`
	Segment        [2]orbital.Vector3 `json:"segment"` // head and tail, absolute
	Energy         float64            `json:"energy"`
	Wavelength     float64            `json:"wavelength"`
	BaseHitChance  float64            `json:"baseHitChance"`
	Damage         float64            `json:"damage"`
}

func (*BeamInfo) BlobType() ecs.TypeKey { return BeamInfoType }

func (b *BeamInfo) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	if err := b.Launcher.Resolve(find); err != nil {
		return err
	}
	return b.Target.Resolve(find)
}

// Health is the structural integrity of a ship or station.
type Health struct {
	ecs.Blob
	HP    float64 `json:"hp"`
	MaxHP float64 `json:"maxHp"`
	Armor float64 `json:"armor"`
}

func (*Health) BlobType() ecs.TypeKey { return HealthType }

func NewHealth(hp, armor float64) *Health {
	return &Health{HP: hp, MaxHP: hp, Armor: armor}
}

// TakeDamage applies dmg less armor and reports whether the entity is
// destroyed.
func (h *Health) TakeDamage(dmg float64) bool {
	if eff := dmg - h.Armor; eff > 0 {
		h.HP -= eff
	}
	return h.HP <= 0
}
