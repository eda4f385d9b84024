package component

import (
	"time"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
)

type BodyType uint8

const (
	BodyUnknown BodyType = iota
	BodyStar
	BodyGasGiant
	BodyIceGiant
	BodyTerrestrial
	BodyMoon
	BodyAsteroid
	BodyComet
)

var bodyTypeNames = map[string]BodyType{
	"unknown":     BodyUnknown,
	"star":        BodyStar,
	"gasgiant":    BodyGasGiant,
	"icegiant":    BodyIceGiant,
	"terrestrial": BodyTerrestrial,
	"moon":        BodyMoon,
	"asteroid":    BodyAsteroid,
	"comet":       BodyComet,
}

// ParseBodyType maps a lower-case template name to a BodyType.
func ParseBodyType(s string) (BodyType, bool) {
	t, ok := bodyTypeNames[s]
	return t, ok
}

type Tectonics uint8

const (
	TectonicsUnknown Tectonics = iota
	TectonicsDead
	TectonicsMinor
	TectonicsEarthlike
	TectonicsMajor
)

var tectonicsNames = map[string]Tectonics{
	"":          TectonicsUnknown,
	"unknown":   TectonicsUnknown,
	"dead":      TectonicsDead,
	"minor":     TectonicsMinor,
	"earthlike": TectonicsEarthlike,
	"major":     TectonicsMajor,
}

func ParseTectonics(s string) (Tectonics, bool) {
	t, ok := tectonicsNames[s]
	return t, ok
}

// SystemBodyInfo describes a planet, moon, asteroid or comet.
type SystemBodyInfo struct {
	ecs.Blob
	BodyType            BodyType      `json:"bodyType"`
	Tectonics           Tectonics     `json:"tectonics"`
	AxialTilt           float64       `json:"axialTilt"` // degrees
	Albedo              float64       `json:"albedo"`
	MagneticField       float64       `json:"magneticField"`   // uT
	BaseTemperature     float64       `json:"baseTemperature"` // C
	RadiationLevel      float64       `json:"radiationLevel"`
	AtmosphericDust     float64       `json:"atmosphericDust"`
	SupportsPopulations bool          `json:"supportsPopulations"`
	LengthOfDay         time.Duration `json:"lengthOfDay"`
	Gravity             float64       `json:"gravity"` // m/s^2
}

func (*SystemBodyInfo) BlobType() ecs.TypeKey { return SystemBodyInfoType }
