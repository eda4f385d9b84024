package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := write(t, `
[game]
name = "Test Game"
start_date = 2100-06-01T00:00:00Z
systems = ["sol", "alpha-centauri"]

[simulation]
tick_length = "30m"
workers = 2

[logging]
level = "debug"
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "Test Game", cfg.Game.Name)
	assert.True(t, cfg.Game.StartDate.Equal(time.Date(2100, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"sol", "alpha-centauri"}, cfg.Game.Systems)
	assert.Equal(t, 30*time.Minute, cfg.Simulation.TickLength)
	assert.Equal(t, 2, cfg.Simulation.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Game.BootTime.IsZero())

	// untouched sections keep their defaults
	def := Defaults()
	assert.Equal(t, def.Simulation.SensorInterval, cfg.Simulation.SensorInterval)
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, def.Paths, cfg.Paths)
	assert.Equal(t, def.Game.Factions, cfg.Game.Factions)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(write(t, "[simulation]\nworkers = 0\n"))
	assert.ErrorContains(t, err, "workers")

	_, err = Load(write(t, "[simulation]\ntick_length = \"-1h\"\n"))
	assert.ErrorContains(t, err, "tick_length")

	_, err = Load(write(t, "[simulation\n"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "read config")
}

func TestPathHonoursEnvironment(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, "config/server.toml", Path("config/server.toml"))
	t.Setenv(EnvPath, "/etc/pulsar.toml")
	assert.Equal(t, "/etc/pulsar.toml", Path("config/server.toml"))
}
