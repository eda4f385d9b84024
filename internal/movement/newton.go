package movement

import (
	"math"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// NewtonStep is the largest integration sub-step.
const NewtonStep = 5 * time.Second

// IntegrateNewton advances every NewtonMove in m by dt, ending at time end,
// with semi-implicit Euler under the SOI parent's gravity and the remaining
// maneuver delta-v burned at full thrust. It refreshes the tracked elements
// and velocity for ProcessNewton and returns the number of entities moved.
func IntegrateNewton(m *ecs.Manager, dt time.Duration, end time.Time) int {
	if dt <= 0 {
		return 0
	}
	n := 0
	ecs.Each2(m, component.NewtonMoveType, component.PositionType, func(e ecs.Entity, mv *component.NewtonMove, pos *component.Position) {
		n++
		integrate(e, mv, pos, dt, end)
	})
	return n
}

func integrate(e ecs.Entity, mv *component.NewtonMove, pos *component.Position, dt time.Duration, end time.Time) {
	parent, hasParent := mv.SOIParent.Entity()
	mass := component.MassOf(e)
	var sgp float64
	if hasParent {
		sgp = orbital.StandardGravitationalParameter(component.MassOf(parent) + mass)
	}

	r := pos.RelativePosition()
	v := mv.Velocity
	for remaining := dt; remaining > 0; remaining -= NewtonStep {
		h := math.Min(remaining.Seconds(), NewtonStep.Seconds())

		if left := mv.Maneuver.Length(); left > 0 && mv.Thrust > 0 && mass > 0 {
			dv := math.Min(mv.Thrust/mass*h, left)
			burn := mv.Maneuver.Normalize().Scale(dv)
			v = v.Add(burn)
			if dv >= left {
				mv.Maneuver = orbital.Zero
			} else {
				mv.Maneuver = mv.Maneuver.Sub(burn)
			}
		}
		if sgp > 0 {
			if d := r.Length(); d > 0 {
				v = v.Add(r.Scale(-sgp / (d * d * d) * h))
			}
		}
		r = r.Add(v.Scale(h))
	}

	pos.SetRelativePosition(r)
	mv.Velocity = v
	if sgp > 0 && r.Length() > 0 {
		mv.Elements = orbital.KeplerFromStateVectors(sgp, r, v, end)
	}
}
