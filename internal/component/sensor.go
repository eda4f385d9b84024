package component

import "github.com/medleye27/Pulsar4x/internal/core/ecs"

// SensorProfile is what an entity gives away to passive sensors.
type SensorProfile struct {
	ecs.Blob
	Emission     float64 `json:"emission"`     // W
	Reflectivity float64 `json:"reflectivity"` // 0..1
	CrossSection float64 `json:"crossSection"` // m^2
}

func (*SensorProfile) BlobType() ecs.TypeKey { return SensorProfileType }

// SensorReceiver is a passive sensor fitted to a ship or colony.
type SensorReceiver struct {
	ecs.Blob
	Blueprint   string  `json:"blueprint"`
	Sensitivity float64 `json:"sensitivity"` // W received at the threshold of detection
	Resolution  float64 `json:"resolution"`
	Range       float64 `json:"range"` // m, 0 means unlimited
}

func (*SensorReceiver) BlobType() ecs.TypeKey { return SensorReceiverType }
