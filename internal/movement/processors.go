package movement

import (
	"fmt"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// ProcessOrbit writes the state of e's Orbit at time at into its Position.
func ProcessOrbit(e ecs.Entity, at time.Time) error {
	o, ok := component.OrbitType.Get(e)
	if !ok {
		return missing(e, component.MoveOrbit)
	}
	return processOrbit(e, o, at)
}

func processOrbit(e ecs.Entity, o *component.Orbit, at time.Time) error {
	parent, _ := o.Parent.Entity()
	pos, err := positionFor(e, parent)
	if err != nil {
		return err
	}
	if err := pos.SetParent(parent); err != nil {
		return err
	}
	r, v, err := orbital.StateVectors(o.Elements, at)
	if err != nil {
		return fmt.Errorf("orbit of %s: %w", e, err)
	}
	pos.SGP = o.Elements.SGP
	pos.Kepler = o.Elements
	pos.SetRelativePosition(r)
	pos.Velocity = v
	pos.MoveType = component.MoveOrbit
	return nil
}

// ProcessNewtonSimple evaluates e's ballistic trajectory at time at and
// derives fresh Kepler elements from the resulting state.
func ProcessNewtonSimple(e ecs.Entity, at time.Time) error {
	mv, ok := component.NewtonSimpleMoveType.Get(e)
	if !ok {
		return missing(e, component.MoveNewtonSimple)
	}
	return processNewtonSimple(e, mv, at)
}

func processNewtonSimple(e ecs.Entity, mv *component.NewtonSimpleMove, at time.Time) error {
	parent, _ := mv.SOIParent.Entity()
	pos, err := positionFor(e, parent)
	if err != nil {
		return err
	}
	if err := pos.SetParent(parent); err != nil {
		return err
	}
	sgp := orbital.StandardGravitationalParameter(component.MassOf(e) + component.MassOf(parent))
	r, v, err := orbital.StateVectors(mv.Trajectory, at)
	if err != nil {
		return fmt.Errorf("trajectory of %s: %w", e, err)
	}
	pos.SGP = sgp
	pos.SetRelativePosition(r)
	pos.Velocity = v
	if sgp > 0 {
		pos.Kepler = orbital.KeplerFromStateVectors(sgp, r, v, at)
	}
	pos.MoveType = component.MoveNewtonSimple
	return nil
}

// ProcessNewton republishes the elements and velocity kept by the Newton
// integrator. The relative position is already current.
func ProcessNewton(e ecs.Entity, _ time.Time) error {
	mv, ok := component.NewtonMoveType.Get(e)
	if !ok {
		return missing(e, component.MoveNewtonComplex)
	}
	return processNewton(e, mv)
}

func processNewton(e ecs.Entity, mv *component.NewtonMove) error {
	parent, _ := mv.SOIParent.Entity()
	pos, err := positionFor(e, parent)
	if err != nil {
		return err
	}
	if err := pos.SetParent(parent); err != nil {
		return err
	}
	pos.Kepler = mv.Elements
	pos.SGP = mv.Elements.SGP
	pos.Velocity = mv.Velocity
	pos.MoveType = component.MoveNewtonComplex
	return nil
}

// ProcessWarp places e on its warp line at time at.
func ProcessWarp(e ecs.Entity, at time.Time) error {
	w, ok := component.WarpMovingType.Get(e)
	if !ok {
		return missing(e, component.MoveWarp)
	}
	return processWarp(e, w, at)
}

func processWarp(e ecs.Entity, w *component.WarpMoving, at time.Time) error {
	parent, _ := w.Parent.Entity()
	pos, err := positionFor(e, parent)
	if err != nil {
		return err
	}
	if err := pos.SetParent(parent); err != nil {
		return err
	}
	pos.Kepler = w.TargetOrbit
	pos.SGP = w.TargetOrbit.SGP
	pos.SetRelativePosition(w.PositionAt(at))
	pos.Velocity = w.VelocityAt(at)
	pos.MoveType = component.MoveWarp
	return nil
}
