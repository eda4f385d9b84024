package data

import (
	"fmt"
	"path/filepath"
)

// Tables bundles every static table the game reads.
type Tables struct {
	Sensors *SensorTable
	Weapons *WeaponTable
	Systems *SystemTable
}

// LoadTables loads sensors.yaml, weapons.yaml and systems/ from dir.
func LoadTables(dir string) (*Tables, error) {
	sensors, err := LoadSensorTable(filepath.Join(dir, "sensors.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	weapons, err := LoadWeaponTable(filepath.Join(dir, "weapons.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	systems, err := LoadSystemTable(filepath.Join(dir, "systems"))
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return &Tables{Sensors: sensors, Weapons: weapons, Systems: systems}, nil
}
