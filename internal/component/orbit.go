package component

import (
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// Orbit is the movement model of a body on a fixed Keplerian orbit.
type Orbit struct {
	ecs.Blob
	Parent   EntityRef              `json:"parent"`
	Elements orbital.KeplerElements `json:"elements"`
}

func (*Orbit) BlobType() ecs.TypeKey { return OrbitType }

// NewOrbit builds an orbit around parent. The SGP of the elements is derived
// from parent and body masses.
func NewOrbit(parent ecs.Entity, bodyMass float64, ke orbital.KeplerElements) *Orbit {
	ke.SGP = orbital.StandardGravitationalParameter(MassOf(parent) + bodyMass)
	return &Orbit{Parent: RefTo(parent), Elements: ke}
}

func (o *Orbit) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return o.Parent.Resolve(find)
}
