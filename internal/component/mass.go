package component

import (
	"math"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
)

// MassVolume holds the physical bulk of a body or ship.
type MassVolume struct {
	ecs.Blob
	Mass    float64 `json:"mass"`    // kg
	Volume  float64 `json:"volume"`  // m^3
	Density float64 `json:"density"` // kg/m^3
	Radius  float64 `json:"radius"`  // m
}

func (*MassVolume) BlobType() ecs.TypeKey { return MassVolumeType }

// NewMassVolume derives volume and density from a spherical body.
func NewMassVolume(mass, radius float64) *MassVolume {
	vol := 4.0 / 3.0 * math.Pi * radius * radius * radius
	mv := &MassVolume{Mass: mass, Radius: radius, Volume: vol}
	if vol > 0 {
		mv.Density = mass / vol
	}
	return mv
}

// MassOf returns e's mass, or 0 when it has no MassVolume.
func MassOf(e ecs.Entity) float64 {
	if mv, ok := MassVolumeType.Get(e); ok {
		return mv.Mass
	}
	return 0
}
