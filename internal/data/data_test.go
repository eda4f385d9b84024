package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestShippedTables(t *testing.T) {
	tables, err := LoadTables(filepath.Join("..", "..", "data", "yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, tables.Sensors.Count())
	assert.Equal(t, 2, tables.Weapons.Count())
	laser := tables.Weapons.Get("LASER-10CM")
	require.NotNil(t, laser)
	assert.Equal(t, 10*time.Second, laser.Cooldown)

	sol := tables.Systems.Get("Sol")
	require.NotNil(t, sol)
	assert.Equal(t, "Sol", sol.Bodies[0].Name)
	assert.Empty(t, sol.Bodies[0].Parent)
	luna := sol.Body("luna")
	require.NotNil(t, luna)
	assert.Equal(t, "Earth", luna.Parent)
	assert.Equal(t, 24*time.Hour, sol.Body("Earth").LengthOfDay)
	assert.Equal(t, []string{"sol"}, tables.Systems.IDs())
}

func TestCaseFoldedLookup(t *testing.T) {
	p := writeFile(t, t.TempDir(), "sensors.yaml", `
- id: Passive-EM
  name: Array
  sensitivity: 1.0e-6
`)
	st, err := LoadSensorTable(p)
	require.NoError(t, err)
	assert.NotNil(t, st.Get("passive-em"))
	assert.NotNil(t, st.Get(" PASSIVE-EM "))
	assert.Nil(t, st.Get("active"))
	assert.Len(t, st.All(), 1)
}

func TestDuplicateIDsRejected(t *testing.T) {
	p := writeFile(t, t.TempDir(), "sensors.yaml", `
- id: a
- id: A
`)
	_, err := LoadSensorTable(p)
	assert.ErrorContains(t, err, "duplicate")
}

func TestWeaponValidation(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadWeaponTable(writeFile(t, dir, "w1.yaml", "- id: x\n  beam_speed: 0\n"))
	assert.ErrorContains(t, err, "beam_speed")
	_, err = LoadWeaponTable(writeFile(t, dir, "w2.yaml", "- id: x\n  beam_speed: 1\n  base_hit_chance: 1.5\n"))
	assert.ErrorContains(t, err, "base_hit_chance")
	_, err = LoadWeaponTable(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read weapon list")
}

func TestSystemTemplateValidation(t *testing.T) {
	cases := map[string]string{
		"missing id": `
bodies:
  - name: A
`,
		"listed before": `
id: x
bodies:
  - name: A
  - name: B
    parent: C
    semi_major_axis: 1
  - name: C
    parent: A
    semi_major_axis: 1
`,
		"duplicate name": `
id: x
bodies:
  - name: A
  - name: a
    parent: A
    semi_major_axis: 1
`,
		"only the first": `
id: x
bodies:
  - name: A
  - name: B
`,
		"eccentricity": `
id: x
bodies:
  - name: A
  - name: B
    parent: A
    semi_major_axis: 1
    eccentricity: 1.2
`,
	}
	dir := t.TempDir()
	for want, body := range cases {
		_, err := LoadSystemTemplate(writeFile(t, dir, want+".yaml", body))
		assert.ErrorContains(t, err, want)
	}
}

func TestSystemTableSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "id: Alpha\nbodies:\n  - name: A\n")
	writeFile(t, dir, "README.md", "not a template")
	st, err := LoadSystemTable(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count())
	assert.NotNil(t, st.Get("alpha"))
}
