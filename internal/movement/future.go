package movement

import (
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// maxFutureDepth bounds the parent walk of FutureAbsolutePosition.
const maxFutureDepth = 64

// FuturePosition predicts e's parent-relative position at time at without
// touching any datablob. Entities without a movement model stay put.
func FuturePosition(e ecs.Entity, at time.Time) (orbital.Vector3, error) {
	if o, ok := component.OrbitType.Get(e); ok {
		r, _, err := orbital.StateVectors(o.Elements, at)
		return r, err
	}
	if mv, ok := component.NewtonSimpleMoveType.Get(e); ok {
		r, _, err := orbital.StateVectors(mv.Trajectory, at)
		return r, err
	}
	if mv, ok := component.NewtonMoveType.Get(e); ok {
		if mv.Elements.SGP > 0 && mv.Elements.SemiMajorAxis != 0 {
			r, _, err := orbital.StateVectors(mv.Elements, at)
			return r, err
		}
	}
	if w, ok := component.WarpMovingType.Get(e); ok {
		return w.PositionAt(at), nil
	}
	if pos, ok := component.PositionType.Get(e); ok {
		return pos.RelativePosition(), nil
	}
	return orbital.Zero, ErrNoPosition
}

// FutureAbsolutePosition adds the predicted positions of e and each of its
// ancestors at time at.
func FutureAbsolutePosition(e ecs.Entity, at time.Time) (orbital.Vector3, error) {
	abs := orbital.Zero
	cur := e
	for depth := 0; depth < maxFutureDepth; depth++ {
		r, err := FuturePosition(cur, at)
		if err != nil {
			return orbital.Zero, err
		}
		abs = abs.Add(r)
		pos, ok := component.PositionType.Get(cur)
		if !ok {
			break
		}
		parent, ok := pos.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	return abs, nil
}
