package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SensorBlueprint is a passive sensor design.
type SensorBlueprint struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Sensitivity float64 `yaml:"sensitivity"` // W at the detection threshold
	Resolution  float64 `yaml:"resolution"`
	Range       float64 `yaml:"range"` // m, 0 = unlimited
}

// SensorTable looks up sensor blueprints by case-folded id.
type SensorTable struct {
	byID  map[string]*SensorBlueprint
	order []*SensorBlueprint
}

// LoadSensorTable loads sensors.yaml.
func LoadSensorTable(path string) (*SensorTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sensor list: %w", err)
	}
	var entries []SensorBlueprint
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse sensor list: %w", err)
	}
	t := &SensorTable{byID: make(map[string]*SensorBlueprint, len(entries))}
	for i := range entries {
		e := &entries[i]
		if e.Sensitivity < 0 {
			return nil, fmt.Errorf("sensor %q: negative sensitivity", e.ID)
		}
		key := foldID(e.ID)
		if _, dup := t.byID[key]; dup {
			return nil, fmt.Errorf("sensor %q: duplicate id", e.ID)
		}
		t.byID[key] = e
		t.order = append(t.order, e)
	}
	return t, nil
}

// Get returns the blueprint for id, or nil if none.
func (t *SensorTable) Get(id string) *SensorBlueprint {
	return t.byID[foldID(id)]
}

// Count returns the total number of blueprints loaded.
func (t *SensorTable) Count() int {
	return len(t.byID)
}

// All returns the blueprints in file order.
func (t *SensorTable) All() []*SensorBlueprint {
	return t.order
}
