package component

import (
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// NewtonSimpleMove follows a precomputed ballistic trajectory around its
// sphere-of-influence parent.
type NewtonSimpleMove struct {
	ecs.Blob
	SOIParent  EntityRef              `json:"soiParent"`
	Trajectory orbital.KeplerElements `json:"trajectory"`
}

func (*NewtonSimpleMove) BlobType() ecs.TypeKey { return NewtonSimpleMoveType }

func (n *NewtonSimpleMove) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return n.SOIParent.Resolve(find)
}

// NewtonMove is integrated every tick under parent gravity and engine thrust.
// Elements and Velocity are kept current by the integrator.
type NewtonMove struct {
	ecs.Blob
	SOIParent EntityRef              `json:"soiParent"`
	Elements  orbital.KeplerElements `json:"elements"`
	Velocity  orbital.Vector3        `json:"velocity"`

	// Maneuver is the delta-v still to burn, in the parent frame.
	Maneuver orbital.Vector3 `json:"maneuver"`
	Thrust   float64         `json:"thrust"` // N
}

func (*NewtonMove) BlobType() ecs.TypeKey { return NewtonMoveType }

func (n *NewtonMove) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return n.SOIParent.Resolve(find)
}
