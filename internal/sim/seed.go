package sim

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/data"
	"github.com/medleye27/Pulsar4x/internal/movement"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

var (
	ErrNoTemplate  = errors.New("no such system template")
	ErrNoBlueprint = errors.New("no such blueprint")
	ErrNoBody      = errors.New("no such body")
	ErrNoFaction   = errors.New("entity is not a faction")
)

const degToRad = math.Pi / 180

// SeedStarSystem loads the system template id and creates its bodies,
// placed on their orbits at the current game time.
func (g *Game) SeedStarSystem(id string) (*StarSystem, error) {
	if g.tables == nil || g.tables.Systems == nil {
		return nil, fmt.Errorf("seed %q: %w", id, ErrNoTemplate)
	}
	tpl := g.tables.Systems.Get(id)
	if tpl == nil {
		return nil, fmt.Errorf("seed %q: %w", id, ErrNoTemplate)
	}
	s, err := g.AddStarSystem(tpl.ID, tpl.Name)
	if err != nil {
		return nil, err
	}
	if _, err := SeedBodies(s.Manager, tpl, g.now); err != nil {
		_, _ = g.UnloadStarSystem(tpl.ID)
		return nil, fmt.Errorf("seed %q: %w", id, err)
	}
	return s, nil
}

// SeedBodies creates every body of tpl in m, in template order. Orbits take
// epoch as their element epoch.
func SeedBodies(m *ecs.Manager, tpl *data.SystemTemplate, epoch time.Time) ([]ecs.Entity, error) {
	byName := make(map[string]ecs.Entity, len(tpl.Bodies))
	out := make([]ecs.Entity, 0, len(tpl.Bodies))
	for i := range tpl.Bodies {
		bt := &tpl.Bodies[i]
		var parent ecs.Entity
		if bt.Parent != "" {
			pt := tpl.Body(bt.Parent)
			if pt == nil {
				return out, fmt.Errorf("body %q parent %q: %w", bt.Name, bt.Parent, ErrNoBody)
			}
			parent = byName[pt.Name]
		}
		e, err := createBody(m, bt, parent, epoch)
		if err != nil {
			return out, fmt.Errorf("body %q: %w", bt.Name, err)
		}
		byName[bt.Name] = e
		out = append(out, e)
	}
	return out, nil
}

func createBody(m *ecs.Manager, bt *data.BodyTemplate, parent ecs.Entity, epoch time.Time) (ecs.Entity, error) {
	bodyType, ok := component.ParseBodyType(strings.ToLower(bt.Type))
	if !ok {
		return ecs.Entity{}, fmt.Errorf("unknown body type %q", bt.Type)
	}
	tectonics, ok := component.ParseTectonics(strings.ToLower(bt.Tectonics))
	if !ok {
		return ecs.Entity{}, fmt.Errorf("unknown tectonics %q", bt.Tectonics)
	}

	blobs := []ecs.DataBlob{
		component.NewName(bt.Name),
		component.NewMassVolume(bt.Mass, bt.Radius),
		&component.SystemBodyInfo{
			BodyType:            bodyType,
			Tectonics:           tectonics,
			AxialTilt:           bt.AxialTilt,
			Albedo:              bt.Albedo,
			BaseTemperature:     bt.BaseTemperature,
			SupportsPopulations: bt.SupportsPopulations,
			LengthOfDay:         bt.LengthOfDay,
			Gravity:             bt.Gravity,
		},
		&component.SensorProfile{
			Emission:     bt.Emission,
			Reflectivity: bt.Albedo,
			CrossSection: math.Pi * bt.Radius * bt.Radius,
		},
	}
	if parent.IsZero() {
		blobs = append(blobs, component.NewPosition(orbital.Zero))
		return m.CreateEntity(blobs...)
	}

	ke := orbital.KeplerElements{
		SemiMajorAxis:      bt.SemiMajorAxis * orbital.AU,
		Eccentricity:       bt.Eccentricity,
		Inclination:        bt.Inclination * degToRad,
		LoAN:               bt.LoAN * degToRad,
		AoP:                bt.AoP * degToRad,
		MeanAnomalyAtEpoch: bt.MeanAnomaly * degToRad,
		Epoch:              epoch,
	}
	blobs = append(blobs, component.NewOrbit(parent, bt.Mass, ke))
	e, err := m.CreateEntity(blobs...)
	if err != nil {
		return ecs.Entity{}, err
	}
	if err := movement.ProcessOrbit(e, epoch); err != nil {
		return e, err
	}
	return e, nil
}

// Body finds a body of the system by name, ignoring case.
func (s *StarSystem) Body(name string) (ecs.Entity, bool) {
	for _, e := range component.SystemBodyInfoType.Entities(s.Manager) {
		if n, ok := component.NameType.Get(e); ok && strings.EqualFold(n.Default, name) {
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// CreateFaction adds a faction to the global manager.
func (g *Game) CreateFaction(name string) (ecs.Entity, error) {
	f, err := g.global.CreateEntity(component.NewFactionInfo(name), component.NewName(name))
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("create faction %q: %w", name, err)
	}
	return f, nil
}

// Faction finds a faction by name.
func (g *Game) Faction(name string) (ecs.Entity, bool) {
	var found ecs.Entity
	ok := false
	ecs.Each(g.global, component.FactionInfoType, func(e ecs.Entity, fi *component.FactionInfo) {
		if !ok && fi.Name == name {
			found, ok = e, true
		}
	})
	return found, ok
}

// ShipSpec describes a ship to spawn. Sensor and Weapon are blueprint ids and
// may be empty.
type ShipSpec struct {
	Name    string
	Faction ecs.Entity
	Parent  string          // body to park at, empty to pick by sphere of influence
	Offset  orbital.Vector3 // from the parent body, or from the primary
	Mass    float64
	Radius  float64
	HP      float64
	Armor   float64
	Sensor  string
	Weapon  string

	// Emission is the ship's own signature, W.
	Emission float64
}

// SpawnShip creates a ship in star system id, parked at an offset from a
// body and fitted from the sensor and weapon tables. Without a named body the
// offset is taken from the primary and the ship is parented to the body whose
// sphere of influence holds it.
func (g *Game) SpawnShip(id string, spec ShipSpec) (ecs.Entity, error) {
	s, ok := g.byID[id]
	if !ok {
		return ecs.Entity{}, fmt.Errorf("spawn %q in %q: %w", spec.Name, id, ErrUnknownSystem)
	}
	if !component.FactionInfoType.Has(spec.Faction) {
		return ecs.Entity{}, fmt.Errorf("spawn %q: %w", spec.Name, ErrNoFaction)
	}

	var parent ecs.Entity
	offset := spec.Offset
	if spec.Parent == "" {
		var star ecs.Entity
		if star, ok = s.Primary(); ok {
			at := component.PositionType.Must(star).AbsolutePosition().Add(offset)
			parent, _ = s.SOIParent(at)
			offset = at.Sub(component.PositionType.Must(parent).AbsolutePosition())
		}
	} else {
		parent, ok = s.Body(spec.Parent)
	}
	if !ok {
		return ecs.Entity{}, fmt.Errorf("spawn %q at %q: %w", spec.Name, spec.Parent, ErrNoBody)
	}

	blobs := []ecs.DataBlob{
		component.NewName(spec.Name),
		component.NewMassVolume(spec.Mass, spec.Radius),
		&component.FactionOwner{Faction: component.RefTo(spec.Faction)},
		component.NewHealth(spec.HP, spec.Armor),
		&component.SensorProfile{
			Emission:     spec.Emission,
			Reflectivity: 0.5,
			CrossSection: math.Pi * spec.Radius * spec.Radius,
		},
	}
	if spec.Sensor != "" {
		recv, err := g.sensorFromBlueprint(spec.Sensor)
		if err != nil {
			return ecs.Entity{}, fmt.Errorf("spawn %q: %w", spec.Name, err)
		}
		blobs = append(blobs, recv)
	}
	if spec.Weapon != "" {
		w, err := g.weaponFromBlueprint(spec.Weapon)
		if err != nil {
			return ecs.Entity{}, fmt.Errorf("spawn %q: %w", spec.Name, err)
		}
		blobs = append(blobs, w)
	}

	pos := component.NewPosition(orbital.Zero)
	blobs = append(blobs, pos)
	e, err := s.Manager.CreateEntity(blobs...)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}
	if err := pos.SetParent(parent); err != nil {
		return e, err
	}
	pos.SetRelativePosition(offset)
	return e, nil
}

func (g *Game) sensorFromBlueprint(id string) (*component.SensorReceiver, error) {
	if g.tables == nil || g.tables.Sensors == nil {
		return nil, fmt.Errorf("sensor %q: %w", id, ErrNoBlueprint)
	}
	bp := g.tables.Sensors.Get(id)
	if bp == nil {
		return nil, fmt.Errorf("sensor %q: %w", id, ErrNoBlueprint)
	}
	return &component.SensorReceiver{
		Blueprint:   bp.ID,
		Sensitivity: bp.Sensitivity,
		Resolution:  bp.Resolution,
		Range:       bp.Range,
	}, nil
}

func (g *Game) weaponFromBlueprint(id string) (*component.BeamWeapon, error) {
	if g.tables == nil || g.tables.Weapons == nil {
		return nil, fmt.Errorf("weapon %q: %w", id, ErrNoBlueprint)
	}
	bp := g.tables.Weapons.Get(id)
	if bp == nil {
		return nil, fmt.Errorf("weapon %q: %w", id, ErrNoBlueprint)
	}
	return &component.BeamWeapon{
		Blueprint:     bp.ID,
		Energy:        bp.Energy,
		Wavelength:    bp.Wavelength,
		BeamSpeed:     bp.BeamSpeed,
		BaseHitChance: bp.BaseHitChance,
		Damage:        bp.Damage,
		Range:         bp.Range,
		Cooldown:      bp.Cooldown,
	}, nil
}
