// Package sensors keeps each faction's contact table in step with what its
// sensors can see. A contact is created on first detection, refreshed from
// the live signal quality on every later one, and frozen as memory once the
// real entity leaves the game.
package sensors

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/dice"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

const (
	// BodyTypeThreshold is the quality above which the body type is known.
	BodyTypeThreshold = 0.20
	// TectonicsThreshold is the quality above which tectonics are known.
	TectonicsThreshold = 0.80

	// MaxTiltError is the axial tilt error, in degrees, at zero quality.
	MaxTiltError = 45.0
	// MaxPositionError is the position error, in meters, at zero quality.
	MaxPositionError = 1e7
)

var ErrNotFaction = errors.New("observer has no FactionInfo")

// LostFunc is told about a contact that has just fallen back to memory. It
// runs on the goroutine that destroyed the real entity.
type LostFunc func(observer ecs.Entity, c *component.SensorContact)

// Create records a detection of real by observer at quality. The first call
// for a pair creates the contact; later calls update the same one.
func Create(observer, real ecs.Entity, at time.Time, quality float64) (*component.SensorContact, error) {
	c, _, err := Acquire(observer, real, at, quality, nil)
	return c, err
}

// Acquire is Create with a removal callback. added is true when the contact
// was created by this call. onLost may be nil.
func Acquire(observer, real ecs.Entity, at time.Time, quality float64, onLost LostFunc) (c *component.SensorContact, added bool, err error) {
	fi, ok := component.FactionInfoType.Get(observer)
	if !ok {
		return nil, false, fmt.Errorf("detect with %s: %w", observer, ErrNotFaction)
	}
	if !real.IsValid() {
		return nil, false, fmt.Errorf("detect %s: %w", real, ecs.ErrInvalidEntity)
	}

	c, added = fi.Contacts.GetOrAdd(real.Guid(), &component.SensorContact{
		Actual: component.RefTo(real),
		Info:   component.DetectionInfo{FirstDetected: at},
	})
	if added {
		sub, err := real.Manager().Subscribe(real, removalHandler(observer, c, onLost))
		if err != nil {
			fi.Contacts.Remove(real.Guid())
			return nil, false, err
		}
		c.Lock()
		c.Subscription = sub
		c.Unlock()
	}
	if _, err := Update(observer, c, real, at, quality); err != nil {
		return nil, false, err
	}
	return c, added, nil
}

func removalHandler(observer ecs.Entity, c *component.SensorContact, onLost LostFunc) ecs.Handler {
	return func(msg ecs.Message) {
		if msg.Type != ecs.EntityRemoved {
			return
		}
		c.Lock()
		c.Position.Source = component.FromMemory
		sub := c.Subscription
		c.Unlock()
		if sub != nil {
			sub.Cancel()
		}
		if onLost != nil {
			onLost(observer, c)
		}
	}
}

// Update refreshes c from real at the given signal quality. Every field is
// recomputed from quality alone, so a weak reading after a strong one loses
// precision. A frozen contact is left alone and reports false.
func Update(observer ecs.Entity, c *component.SensorContact, real ecs.Entity, at time.Time, quality float64) (bool, error) {
	c.Lock()
	defer c.Unlock()
	if c.Position.Source == component.FromMemory {
		return false, nil
	}
	if !real.IsValid() {
		return false, fmt.Errorf("update contact %s: %w", c.Actual.Guid, ecs.ErrInvalidEntity)
	}
	q := clamp01(quality)
	rng := dice.New(at, observer.Guid(), real.Guid())

	c.Info.SignalQuality = q
	c.Info.DetectedAt = at
	if c.Info.FirstDetected.IsZero() {
		c.Info.FirstDetected = at
	}
	if q > c.Info.HighestQuality {
		c.Info.HighestQuality = q
	}
	c.Name = component.NameOf(real, observer)

	if pos, ok := component.PositionType.Get(real); ok {
		c.Position.Absolute = pos.AbsolutePosition().Add(jitter(rng, (1-q)*MaxPositionError))
		c.Position.Velocity = pos.Velocity
	}
	c.Position.Source = component.FromSensors

	if body, ok := component.SystemBodyInfoType.Get(real); ok {
		c.Body = DegradeBody(body, q, rng)
	}
	return true, nil
}

// DegradeBody clones real as seen at quality.
func DegradeBody(real *component.SystemBodyInfo, quality float64, rng *rand.Rand) *component.SystemBodyInfo {
	b := &component.SystemBodyInfo{
		MagneticField:       real.MagneticField,
		BaseTemperature:     real.BaseTemperature,
		RadiationLevel:      real.RadiationLevel,
		AtmosphericDust:     real.AtmosphericDust,
		SupportsPopulations: real.SupportsPopulations,
		LengthOfDay:         real.LengthOfDay,
		Gravity:             real.Gravity,
		Albedo:              real.Albedo,
	}
	if quality > BodyTypeThreshold {
		b.BodyType = real.BodyType
	}
	if quality > TectonicsThreshold {
		b.Tectonics = real.Tectonics
	}
	b.AxialTilt = real.AxialTilt + (rng.Float64()*2-1)*(1-quality)*MaxTiltError
	return b
}

// jitter is a uniformly random offset of length at most r.
func jitter(rng *rand.Rand, r float64) orbital.Vector3 {
	if r <= 0 {
		return orbital.Zero
	}
	v := orbital.V(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1)
	if v.Length() > 1 {
		v = v.Normalize()
	}
	return v.Scale(r)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Rewatch re-subscribes every live contact of observer to its real entity.
// Subscriptions are not persisted, so a loaded faction calls this once all
// managers are in place. Contacts whose entity is gone are frozen. It
// returns the number of contacts watched.
func Rewatch(observer ecs.Entity, onLost LostFunc) (int, error) {
	fi, ok := component.FactionInfoType.Get(observer)
	if !ok {
		return 0, fmt.Errorf("rewatch %s: %w", observer, ErrNotFaction)
	}
	n := 0
	for _, c := range fi.Contacts.All() {
		c.Lock()
		frozen := c.Position.Source == component.FromMemory
		active := c.Subscription != nil && c.Subscription.Active()
		real, alive := c.Actual.Entity()
		if !frozen && !alive {
			c.Position.Source = component.FromMemory
		}
		c.Unlock()
		if frozen || active || !alive {
			continue
		}
		sub, err := real.Manager().Subscribe(real, removalHandler(observer, c, onLost))
		if err != nil {
			return n, err
		}
		c.Lock()
		c.Subscription = sub
		c.Unlock()
		n++
	}
	return n, nil
}
