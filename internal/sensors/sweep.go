package sensors

import (
	"errors"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// AcquiredFunc is told about a contact created by a sweep.
type AcquiredFunc func(observer ecs.Entity, c *component.SensorContact)

// Hooks receive sweep outcomes. Either may be nil.
type Hooks struct {
	Acquired AcquiredFunc
	Lost     LostFunc
}

type sighting struct {
	observer ecs.Entity
	target   ecs.Entity
	quality  float64
}

type pairKey struct {
	observer ecs.Guid
	target   ecs.Guid
}

// Sweep runs every faction-owned SensorReceiver in m against every entity in
// m with a SensorProfile and a Position. Targets are lit by the emission of
// every other profiled entity in m. Each faction keeps the best reading per
// target. Entities of the observing faction are skipped. It returns the
// number of contacts refreshed.
func Sweep(m *ecs.Manager, at time.Time, det Detector, hooks Hooks) (int, error) {
	type target struct {
		e       ecs.Entity
		prof    *component.SensorProfile
		at      orbital.Vector3
		lit     float64
		faction ecs.Guid
	}
	var (
		targets  []target
		emitters []Emitter
	)
	ecs.Each2(m, component.SensorProfileType, component.PositionType, func(e ecs.Entity, prof *component.SensorProfile, pos *component.Position) {
		t := target{e: e, prof: prof, at: pos.AbsolutePosition()}
		if f, ok := component.OwnerOf(e); ok {
			t.faction = f.Guid()
		}
		targets = append(targets, t)
		if prof.Emission > 0 {
			emitters = append(emitters, Emitter{Entity: e, At: t.at, Power: prof.Emission})
		}
	})
	if len(targets) == 0 {
		return 0, nil
	}
	for i := range targets {
		if targets[i].prof.Reflectivity > 0 {
			targets[i].lit = Illumination(targets[i].at, targets[i].e, emitters)
		}
	}

	var seen []sighting
	best := make(map[pairKey]int)
	ecs.Each3(m, component.SensorReceiverType, component.FactionOwnerType, component.PositionType, func(e ecs.Entity, recv *component.SensorReceiver, owner *component.FactionOwner, pos *component.Position) {
		observer, ok := owner.Faction.Entity()
		if !ok {
			return
		}
		from := pos.AbsolutePosition()
		for _, t := range targets {
			if t.e == e || t.faction == observer.Guid() {
				continue
			}
			q := det.Quality(recv, t.prof, t.lit, from.Distance(t.at))
			if q <= 0 {
				continue
			}
			k := pairKey{observer: observer.Guid(), target: t.e.Guid()}
			if i, ok := best[k]; ok {
				if q > seen[i].quality {
					seen[i].quality = q
				}
				continue
			}
			best[k] = len(seen)
			seen = append(seen, sighting{observer: observer, target: t.e, quality: q})
		}
	})

	var errs []error
	n := 0
	for _, s := range seen {
		c, added, err := Acquire(s.observer, s.target, at, s.quality, hooks.Lost)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n++
		if added && hooks.Acquired != nil {
			hooks.Acquired(s.observer, c)
		}
	}
	return n, errors.Join(errs...)
}
