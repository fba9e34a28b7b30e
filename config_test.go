package orbital

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/orbital/rt/core"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, OrbitalConfig{N: 4, L: 1, M: 0}, cfg.Orbital)
	assert.Equal(t, 100000, cfg.Particles.Count)
	assert.Equal(t, float32(30), cfg.Camera.Distance)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbital.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orbital:
  n: 3
  l: 2
  m: -1
particles:
  count: 5000
  normalization: global
mesh:
  subdivision: 2
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, OrbitalConfig{N: 3, L: 2, M: -1}, cfg.Orbital)
	assert.Equal(t, 5000, cfg.Particles.Count)
	assert.Equal(t, 2, cfg.Mesh.Subdivision)
	// Untouched keys keep their defaults.
	assert.Equal(t, float32(0.15), cfg.Mesh.Scale)
	assert.Equal(t, DefaultConfig().Window, cfg.Window)

	sc := cfg.SamplerConfig()
	assert.Equal(t, core.Global, sc.Normalization)
	assert.Equal(t, 5000, sc.Count)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orbital: [1, 2"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestParseFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbital.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orbital: {n: 5, l: 3, m: 2}\nparticles: {count: 10}\n"), 0o644))

	cfg, err := ParseFlags("orbital", []string{"-config", path, "-m", "0", "-debug", "-subdiv", "1"})
	require.NoError(t, err)

	assert.Equal(t, OrbitalConfig{N: 5, L: 3, M: 0}, cfg.Orbital, "explicit flag wins over the file")
	assert.Equal(t, 10, cfg.Particles.Count)
	assert.Equal(t, 1, cfg.Mesh.Subdivision)
	assert.True(t, cfg.Debug)
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := ParseFlags("orbital", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseFlagsHelp(t *testing.T) {
	_, err := ParseFlags("orbital", []string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Orbital = OrbitalConfig{N: 2, L: 2, M: 0}
	cfg.Particles.Count = 0
	cfg.Mesh.Subdivision = MaxSubdivision + 1
	cfg.Camera.Near = 60
	cfg.Particles.Normalization = "sometimes"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "particle count 0")
	assert.ErrorContains(t, err, "subdivision 7 outside 0..6")
	assert.ErrorContains(t, err, "camera clip range")
	assert.ErrorContains(t, err, "sometimes")
}
