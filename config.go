package orbital

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/orbital/rt/core"
)

var ErrInvalidConfig = errors.New("invalid config")

const MaxSubdivision = 6

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type OrbitalConfig struct {
	N int `yaml:"n"`
	L int `yaml:"l"`
	M int `yaml:"m"`
}

type ParticlesConfig struct {
	Count         int     `yaml:"count"`
	Batch         int     `yaml:"batch"`
	Bound         float64 `yaml:"bound"`
	Warp          float64 `yaml:"warp"`
	Threshold     float64 `yaml:"threshold"`
	Seed          uint64  `yaml:"seed"`
	Normalization string  `yaml:"normalization"`
	MaxBatches    int     `yaml:"max_batches"`
}

type MeshConfig struct {
	Subdivision int     `yaml:"subdivision"`
	Scale       float32 `yaml:"scale"`
}

type TransportConfig struct {
	Speed float32 `yaml:"speed"`
	Spin  float32 `yaml:"spin"`
}

type OcclusionConfig struct {
	Radius   float32 `yaml:"radius"`
	Bias     float32 `yaml:"bias"`
	Strength float32 `yaml:"strength"`
}

type CameraConfig struct {
	Distance   float32 `yaml:"distance"`
	Fov        float32 `yaml:"fov"`
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	OrbitSpeed float32 `yaml:"orbit_speed"`
}

type CaptureConfig struct {
	Dir   string  `yaml:"dir"`
	Scale float64 `yaml:"scale"`
}

type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Orbital   OrbitalConfig   `yaml:"orbital"`
	Particles ParticlesConfig `yaml:"particles"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Transport TransportConfig `yaml:"transport"`
	Occlusion OcclusionConfig `yaml:"occlusion"`
	Camera    CameraConfig    `yaml:"camera"`
	Capture   CaptureConfig   `yaml:"capture"`
	Debug     bool            `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Window:  WindowConfig{Width: 1280, Height: 720, Title: "Orbital"},
		Orbital: OrbitalConfig{N: 4, L: 1, M: 0},
		Particles: ParticlesConfig{
			Count:         100000,
			Batch:         core.DefaultBatchSize,
			Warp:          core.DefaultWarp,
			Threshold:     core.DefaultThreshold,
			Seed:          core.DefaultSeed,
			Normalization: core.PerBatch.String(),
		},
		Mesh:      MeshConfig{Subdivision: 0, Scale: 0.15},
		Transport: TransportConfig{Speed: 1, Spin: 0.1},
		Occlusion: OcclusionConfig{Radius: 0.5, Bias: 0.025, Strength: 1},
		Camera:    CameraConfig{Distance: 30, Fov: 0.78, Near: 1, Far: 50, OrbitSpeed: 1},
		Capture:   CaptureConfig{Dir: ".", Scale: 1},
	}
}

// LoadConfig reads a YAML file over the defaults. Keys absent from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseFlags builds the configuration from command line arguments: defaults, then the file
// named by -config, then any explicitly set flag.
func ParseFlags(name string, args []string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "YAML configuration file")
	debug := fs.Bool("debug", false, "enable debug logging and profiling")
	particles := fs.Int("particles", 0, "number of particles")
	n := fs.Int("n", 0, "principal quantum number")
	l := fs.Int("l", 0, "azimuthal quantum number")
	m := fs.Int("m", 0, "magnetic quantum number")
	subdiv := fs.Int("subdiv", 0, "particle mesh subdivision level")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if *path != "" {
		var err error
		if cfg, err = LoadConfig(*path); err != nil {
			return cfg, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = *debug
		case "particles":
			cfg.Particles.Count = *particles
		case "n":
			cfg.Orbital.N = *n
		case "l":
			cfg.Orbital.L = *l
		case "m":
			cfg.Orbital.M = *m
		case "subdiv":
			cfg.Mesh.Subdivision = *subdiv
		}
	})
	return cfg, cfg.Validate()
}

// Validate reports every problem found, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		add("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := core.NewPsi(c.Orbital.N, c.Orbital.L, c.Orbital.M); err != nil {
		add("%v", err)
	}
	if c.Particles.Count <= 0 {
		add("particle count %d must be positive", c.Particles.Count)
	}
	if c.Particles.Batch < 0 {
		add("particle batch %d must not be negative", c.Particles.Batch)
	}
	if c.Particles.Threshold <= 0 || c.Particles.Threshold > 1 {
		add("threshold %g outside (0, 1]", c.Particles.Threshold)
	}
	if c.Particles.Warp < 0 {
		add("warp %g must not be negative", c.Particles.Warp)
	}
	if _, err := core.ParseNormalization(c.Particles.Normalization); err != nil {
		add("%v", err)
	}
	if c.Mesh.Subdivision < 0 || c.Mesh.Subdivision > MaxSubdivision {
		add("subdivision %d outside 0..%d", c.Mesh.Subdivision, MaxSubdivision)
	}
	if c.Mesh.Scale <= 0 {
		add("mesh scale %g must be positive", c.Mesh.Scale)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		add("camera clip range [%g, %g] is invalid", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 3.14159 {
		add("camera fov %g outside (0, pi)", c.Camera.Fov)
	}
	if c.Capture.Scale <= 0 {
		add("capture scale %g must be positive", c.Capture.Scale)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SamplerConfig converts the particle section for core.NewSampler.
func (c Config) SamplerConfig() core.SamplerConfig {
	norm, _ := core.ParseNormalization(c.Particles.Normalization)
	return core.SamplerConfig{
		Count:         c.Particles.Count,
		BatchSize:     c.Particles.Batch,
		Bound:         c.Particles.Bound,
		Warp:          c.Particles.Warp,
		Threshold:     c.Particles.Threshold,
		Seed:          c.Particles.Seed,
		Normalization: norm,
		MaxBatches:    c.Particles.MaxBatches,
	}
}
