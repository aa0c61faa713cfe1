package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
cooldownScope: shared
regen: 5
spawnChance: 0.5
seed: 42
ticks:
  threat: 250ms
  ramp: 10ms
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "shared", cfg.CooldownScope)
	assert.Equal(t, 5, cfg.Regen)
	assert.Equal(t, 0.5, cfg.SpawnChance)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.Ticks.Threat)
	assert.Equal(t, 10*time.Millisecond, cfg.Ticks.Ramp)
	assert.Equal(t, 30*time.Second, cfg.Ticks.Cleanup, "unset ticks keep their default")
}

func TestLoadConfig_EnvWins(t *testing.T) {
	path := writeConfig(t, "regen: 5\nspawnChance: 0.5\n")
	t.Setenv(EnvRegen, "7")
	t.Setenv(EnvCooldownScope, "shared")
	t.Setenv(EnvSeed, "99")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Regen)
	assert.Equal(t, 0.5, cfg.SpawnChance)
	assert.Equal(t, "shared", cfg.CooldownScope)
	assert.Equal(t, uint64(99), cfg.Seed)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad scope", body: "cooldownScope: global\n"},
		{name: "spawn chance above one", body: "spawnChance: 1.5\n"},
		{name: "negative regen", body: "regen: -1\n"},
		{name: "sub-millisecond tick", body: "ticks:\n  feedback: 10us\n"},
		{name: "malformed yaml", body: "regen: [\n"},
		{name: "bad env number", env: map[string]string{EnvSpawnChance: "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewSession_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpawnChance = 2
	_, err := NewSession(cfg, Deps{})
	assert.Error(t, err)
}
