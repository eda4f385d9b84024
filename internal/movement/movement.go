// Package movement rewrites each entity's canonical Position from whichever
// movement model it carries. Processors are synchronous and deterministic:
// identical state and time give bit-identical output.
package movement

import (
	"errors"
	"fmt"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

var (
	ErrMoveModelMissing = errors.New("move type has no model component")
	ErrUnknownMoveType  = errors.New("unknown move type")
	ErrNoPosition       = errors.New("entity has no Position")
)

// MoveStateError reports an entity whose Position move type cannot be
// processed.
type MoveStateError struct {
	Entity   ecs.Entity
	MoveType component.MoveType
	Err      error
}

func (e *MoveStateError) Error() string {
	return fmt.Sprintf("move %s as %s: %v", e.Entity, e.MoveType, e.Err)
}

func (e *MoveStateError) Unwrap() error { return e.Err }

// positionFor returns e's Position, attaching a fresh one at parent's
// location when e has none.
func positionFor(e, parent ecs.Entity) (*component.Position, error) {
	if p, ok := component.PositionType.Get(e); ok {
		return p, nil
	}
	p := component.NewPosition(parentAbsolute(parent))
	if err := component.PositionType.Set(e, p); err != nil {
		return nil, err
	}
	return p, nil
}

func parentAbsolute(parent ecs.Entity) orbital.Vector3 {
	if pp, ok := component.PositionType.Get(parent); ok {
		return pp.AbsolutePosition()
	}
	return orbital.Zero
}

// ProcessEntityMove updates e on demand from the model matching its current
// move type. MoveNone is a no-op.
func ProcessEntityMove(e ecs.Entity, at time.Time) error {
	pos, ok := component.PositionType.Get(e)
	if !ok {
		return fmt.Errorf("process move of %s: %w", e, ErrNoPosition)
	}
	var err error
	switch pos.MoveType {
	case component.MoveNone:
		return nil
	case component.MoveOrbit:
		err = ProcessOrbit(e, at)
	case component.MoveNewtonSimple:
		err = ProcessNewtonSimple(e, at)
	case component.MoveNewtonComplex:
		err = ProcessNewton(e, at)
	case component.MoveWarp:
		err = ProcessWarp(e, at)
	default:
		return &MoveStateError{Entity: e, MoveType: pos.MoveType, Err: ErrUnknownMoveType}
	}
	return err
}

// ProcessManager runs every movement model over m, batched by model in the
// order Orbit, NewtonSimple, Newton, Warp. Every entity is processed even if
// some fail; the errors are joined. It returns the number of entities moved.
func ProcessManager(m *ecs.Manager, at time.Time) (int, error) {
	var errs []error
	n := 0
	ecs.Each(m, component.OrbitType, func(e ecs.Entity, o *component.Orbit) {
		n++
		if err := processOrbit(e, o, at); err != nil {
			errs = append(errs, err)
		}
	})
	ecs.Each(m, component.NewtonSimpleMoveType, func(e ecs.Entity, mv *component.NewtonSimpleMove) {
		n++
		if err := processNewtonSimple(e, mv, at); err != nil {
			errs = append(errs, err)
		}
	})
	ecs.Each(m, component.NewtonMoveType, func(e ecs.Entity, mv *component.NewtonMove) {
		n++
		if err := processNewton(e, mv); err != nil {
			errs = append(errs, err)
		}
	})
	ecs.Each(m, component.WarpMovingType, func(e ecs.Entity, w *component.WarpMoving) {
		n++
		if err := processWarp(e, w, at); err != nil {
			errs = append(errs, err)
		}
	})
	return n, errors.Join(errs...)
}

func missing(e ecs.Entity, t component.MoveType) error {
	return &MoveStateError{Entity: e, MoveType: t, Err: ErrMoveModelMissing}
}
