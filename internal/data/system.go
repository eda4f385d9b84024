package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// BodyTemplate is one star, planet, moon or asteroid of a system template.
// Orbital angles are in degrees and the semi-major axis in AU.
type BodyTemplate struct {
	Name                string        `yaml:"name"`
	Type                string        `yaml:"type"`
	Parent              string        `yaml:"parent"` // empty for the primary
	Mass                float64       `yaml:"mass"`   // kg
	Radius              float64       `yaml:"radius"` // m
	SemiMajorAxis       float64       `yaml:"semi_major_axis"`
	Eccentricity        float64       `yaml:"eccentricity"`
	Inclination         float64       `yaml:"inclination"`
	LoAN                float64       `yaml:"longitude_of_ascending_node"`
	AoP                 float64       `yaml:"argument_of_periapsis"`
	MeanAnomaly         float64       `yaml:"mean_anomaly"`
	Tectonics           string        `yaml:"tectonics"`
	AxialTilt           float64       `yaml:"axial_tilt"`
	Albedo              float64       `yaml:"albedo"`
	Emission            float64       `yaml:"emission"` // W
	Gravity             float64       `yaml:"gravity"`
	BaseTemperature     float64       `yaml:"base_temperature"`
	LengthOfDay         time.Duration `yaml:"length_of_day"`
	SupportsPopulations bool          `yaml:"supports_populations"`
}

// SystemTemplate describes a star system to seed. Bodies are listed parents
// first.
type SystemTemplate struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Bodies []BodyTemplate `yaml:"bodies"`
}

// LoadSystemTemplate loads and checks one system file.
func LoadSystemTemplate(path string) (*SystemTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read system template: %w", err)
	}
	var st SystemTemplate
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse system template %s: %w", path, err)
	}
	if err := st.validate(); err != nil {
		return nil, fmt.Errorf("system template %s: %w", path, err)
	}
	return &st, nil
}

func (st *SystemTemplate) validate() error {
	if st.ID == "" {
		return fmt.Errorf("missing id")
	}
	if len(st.Bodies) == 0 {
		return fmt.Errorf("no bodies")
	}
	seen := make(map[string]bool, len(st.Bodies))
	for i, b := range st.Bodies {
		key := foldID(b.Name)
		if key == "" {
			return fmt.Errorf("body %d: missing name", i)
		}
		if seen[key] {
			return fmt.Errorf("body %q: duplicate name", b.Name)
		}
		if b.Parent != "" && !seen[foldID(b.Parent)] {
			return fmt.Errorf("body %q: parent %q must be listed before it", b.Name, b.Parent)
		}
		if b.Parent == "" && i > 0 {
			return fmt.Errorf("body %q: only the first body may have no parent", b.Name)
		}
		if b.Parent != "" && b.SemiMajorAxis <= 0 {
			return fmt.Errorf("body %q: semi_major_axis must be positive", b.Name)
		}
		if b.Eccentricity < 0 || b.Eccentricity >= 1 {
			return fmt.Errorf("body %q: eccentricity must be in [0,1)", b.Name)
		}
		seen[key] = true
	}
	return nil
}

// Body returns the body called name, or nil.
func (st *SystemTemplate) Body(name string) *BodyTemplate {
	key := foldID(name)
	for i := range st.Bodies {
		if foldID(st.Bodies[i].Name) == key {
			return &st.Bodies[i]
		}
	}
	return nil
}

// SystemTable holds every system template in a directory.
type SystemTable struct {
	byID map[string]*SystemTemplate
}

// LoadSystemTable loads every .yaml file in dir as a system template.
func LoadSystemTable(dir string) (*SystemTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read system templates: %w", err)
	}
	t := &SystemTable{byID: make(map[string]*SystemTemplate)}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		st, err := LoadSystemTemplate(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		key := foldID(st.ID)
		if _, dup := t.byID[key]; dup {
			return nil, fmt.Errorf("system template %q: duplicate id", st.ID)
		}
		t.byID[key] = st
	}
	return t, nil
}

// Get returns the template for id, or nil if none.
func (t *SystemTable) Get(id string) *SystemTemplate {
	return t.byID[foldID(id)]
}

// Count returns the total number of templates loaded.
func (t *SystemTable) Count() int {
	return len(t.byID)
}

// IDs returns the template ids, sorted.
func (t *SystemTable) IDs() []string {
	ids := make([]string, 0, len(t.byID))
	for _, st := range t.byID {
		ids = append(ids, st.ID)
	}
	sort.Strings(ids)
	return ids
}
