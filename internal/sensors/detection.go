package sensors

import (
	"math"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
	"github.com/medleye27/Pulsar4x/internal/scripting"
)

// Emitter is a source of light for reflected signal.
type Emitter struct {
	Entity ecs.Entity
	At     orbital.Vector3 // absolute
	Power  float64         // W
}

// Illumination is the flux, in W/m^2, reaching at from every emitter other
// than self. Power spreads over a sphere; distances under 1 m count as 1 m.
func Illumination(at orbital.Vector3, self ecs.Entity, emitters []Emitter) float64 {
	flux := 0.0
	for _, em := range emitters {
		if em.Entity == self || em.Power <= 0 {
			continue
		}
		d := math.Max(at.Distance(em.At), 1)
		flux += em.Power / (4 * math.Pi * d * d)
	}
	return flux
}

// Detector turns a receiver, a target profile, the light falling on the
// target and their separation into a signal quality. Script, when set and
// defining calc_detection, replaces the built-in formula.
type Detector struct {
	Script *scripting.Engine
}

// Quality returns the signal quality in [0,1]; 0 means not detected.
func (d Detector) Quality(recv *component.SensorReceiver, prof *component.SensorProfile, illumination, distance float64) float64 {
	if q, ok := d.Script.CalcDetection(scripting.DetectionContext{
		Emission:     prof.Emission,
		Reflectivity: prof.Reflectivity,
		CrossSection: prof.CrossSection,
		Illumination: illumination,
		Sensitivity:  recv.Sensitivity,
		Resolution:   recv.Resolution,
		Range:        recv.Range,
		Distance:     distance,
	}); ok {
		return q
	}
	return SignalQuality(recv, prof, illumination, distance)
}

// SignalQuality is the built-in detection formula. The target gives off its
// own emission plus the illumination it reflects; received power falls off
// with the square of distance and quality is the fraction of it above the
// receiver's sensitivity.
func SignalQuality(recv *component.SensorReceiver, prof *component.SensorProfile, illumination, distance float64) float64 {
	if recv.Range > 0 && distance > recv.Range {
		return 0
	}
	distance = math.Max(distance, 1)
	source := prof.Emission + prof.Reflectivity*prof.CrossSection*illumination
	received := source / (4 * math.Pi * distance * distance)
	if received <= 0 || received < recv.Sensitivity {
		return 0
	}
	if recv.Sensitivity <= 0 {
		return 1
	}
	return clamp01(1 - recv.Sensitivity/received)
}
