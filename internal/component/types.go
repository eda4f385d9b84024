package component

import (
	"sync"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// Datablob types. Names are the persisted identifiers in saves.
var (
	PositionType         = ecs.NewType("Position", func() *Position { return NewPosition(orbital.Zero) })
	MassVolumeType       = ecs.NewType("MassVolume", func() *MassVolume { return &MassVolume{} })
	NameType             = ecs.NewType("Name", func() *Name { return &Name{} })
	OrbitType            = ecs.NewType("Orbit", func() *Orbit { return &Orbit{} })
	NewtonSimpleMoveType = ecs.NewType("NewtonSimpleMove", func() *NewtonSimpleMove { return &NewtonSimpleMove{} })
	NewtonMoveType       = ecs.NewType("NewtonMove", func() *NewtonMove { return &NewtonMove{} })
	WarpMovingType       = ecs.NewType("WarpMoving", func() *WarpMoving { return &WarpMoving{} })
	SystemBodyInfoType   = ecs.NewType("SystemBodyInfo", func() *SystemBodyInfo { return &SystemBodyInfo{} })
	SensorProfileType    = ecs.NewType("SensorProfile", func() *SensorProfile { return &SensorProfile{} })
	SensorReceiverType   = ecs.NewType("SensorReceiver", func() *SensorReceiver { return &SensorReceiver{} })
	FactionInfoType      = ecs.NewType("FactionInfo", func() *FactionInfo { return NewFactionInfo("") })
	FactionOwnerType     = ecs.NewType("FactionOwner", func() *FactionOwner { return &FactionOwner{} })
	BeamWeaponType       = ecs.NewType("BeamWeapon", func() *BeamWeapon { return &BeamWeapon{} })
	BeamInfoType         = ecs.NewType("BeamInfo", func() *BeamInfo { return &BeamInfo{} })
	HealthType           = ecs.NewType("Health", func() *Health { return &Health{} })
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterAll registers every datablob type. Safe to call more than once.
func RegisterAll() error {
	registerOnce.Do(func() {
		registerErr = ecs.RegisterAllTypes(
			PositionType,
			MassVolumeType,
			NameType,
			OrbitType,
			NewtonSimpleMoveType,
			NewtonMoveType,
			WarpMovingType,
			SystemBodyInfoType,
			SensorProfileType,
			SensorReceiverType,
			FactionInfoType,
			FactionOwnerType,
			BeamWeaponType,
			BeamInfoType,
			HealthType,
		)
	})
	return registerErr
}
