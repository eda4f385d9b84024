package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WeaponBlueprint is a beam weapon design.
type WeaponBlueprint struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Energy        float64       `yaml:"energy"`     // J per shot
	Wavelength    float64       `yaml:"wavelength"` // m
	BeamSpeed     float64       `yaml:"beam_speed"` // m/s
	BaseHitChance float64       `yaml:"base_hit_chance"`
	Damage        float64       `yaml:"damage"`
	Range         float64       `yaml:"range"` // m
	Cooldown      time.Duration `yaml:"cooldown"`
}

// WeaponTable looks up weapon blueprints by case-folded id.
type WeaponTable struct {
	byID  map[string]*WeaponBlueprint
	order []*WeaponBlueprint
}

// LoadWeaponTable loads weapons.yaml.
func LoadWeaponTable(path string) (*WeaponTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weapon list: %w", err)
	}
	var entries []WeaponBlueprint
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse weapon list: %w", err)
	}
	t := &WeaponTable{byID: make(map[string]*WeaponBlueprint, len(entries))}
	for i := range entries {
		e := &entries[i]
		if e.BeamSpeed <= 0 {
			return nil, fmt.Errorf("weapon %q: beam_speed must be positive", e.ID)
		}
		if e.BaseHitChance < 0 || e.BaseHitChance > 1 {
			return nil, fmt.Errorf("weapon %q: base_hit_chance out of [0,1]", e.ID)
		}
		key := foldID(e.ID)
		if _, dup := t.byID[key]; dup {
			return nil, fmt.Errorf("weapon %q: duplicate id", e.ID)
		}
		t.byID[key] = e
		t.order = append(t.order, e)
	}
	return t, nil
}

// Get returns the blueprint for id, or nil if none.
func (t *WeaponTable) Get(id string) *WeaponBlueprint {
	return t.byID[foldID(id)]
}

// Count returns the total number of blueprints loaded.
func (t *WeaponTable) Count() int {
	return len(t.byID)
}

func (t *WeaponTable) All() []*WeaponBlueprint {
	return t.order
}
