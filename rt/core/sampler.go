package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrSamplerStalled = errors.New("sampler stalled")

// Normalization selects which maximum a candidate's density is compared against.
type Normalization int

const (
	// PerBatch compares against the running maximum of the current batch only.
	PerBatch Normalization = iota
	// Global carries the running maximum across batches.
	Global
)

func (n Normalization) String() string {
	switch n {
	case PerBatch:
		return "batch"
	case Global:
		return "global"
	}
	return fmt.Sprintf("Normalization(%d)", int(n))
}

func ParseNormalization(s string) (Normalization, error) {
	switch s {
	case "", "batch":
		return PerBatch, nil
	case "global":
		return Global, nil
	}
	return PerBatch, fmt.Errorf("unknown normalization %q", s)
}

const (
	DefaultBatchSize = 1000
	DefaultWarp      = 2.0
	DefaultThreshold = 0.02
	DefaultSeed      = 123
)

type SamplerConfig struct {
	Count     int
	BatchSize int
	// Bound is the half extent of the sampling box. Zero picks 1.5*n^2.
	Bound float64
	// Warp shapes the sinh reshaping of uniform draws; zero keeps them uniform.
	Warp          float64
	Threshold     float64
	Seed          uint64
	Normalization Normalization
	// MaxBatches caps the number of batches drawn; zero means 10000 + Count.
	MaxBatches int
}

// Sample is one accepted candidate with the values that admitted it.
type Sample struct {
	Position mgl32.Vec3
	Proxy    float64
	Max      float64
	Batch    int
}

type Sampler struct {
	Psi    *Psi
	Config SamplerConfig
	rng    *rand.Rand
}

func NewSampler(psi *Psi, cfg SamplerConfig) (*Sampler, error) {
	if psi == nil {
		return nil, errors.New("sampler: nil wavefunction")
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("sampler: count must be positive, got %d", cfg.Count)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Bound <= 0 {
		cfg.Bound = 1.5 * float64(psi.N*psi.N)
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("sampler: threshold %g outside (0, 1]", cfg.Threshold)
	}
	if cfg.Warp < 0 {
		return nil, fmt.Errorf("sampler: negative warp %g", cfg.Warp)
	}
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = 10000 + cfg.Count
	}
	return &Sampler{
		Psi:    psi,
		Config: cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
	}, nil
}

// draw returns one coordinate in [-Bound, Bound], denser near zero when Warp > 0.
func (s *Sampler) draw() float64 {
	u := 2*s.rng.Float64() - 1
	w := s.Config.Warp
	if w == 0 {
		return s.Config.Bound * u
	}
	return s.Config.Bound * math.Sinh(w*u) / math.Sinh(w)
}

// Sample draws batches until exactly Count candidates are accepted.
func (s *Sampler) Sample() ([]Sample, error) {
	cfg := s.Config
	out := make([]Sample, 0, cfg.Count)

	xs := make([]float64, cfg.BatchSize)
	ys := make([]float64, cfg.BatchSize)
	zs := make([]float64, cfg.BatchSize)

	var runningMax float64
	for batch := 0; len(out) < cfg.Count; batch++ {
		if batch >= cfg.MaxBatches {
			return out, fmt.Errorf("%w: %d of %d accepted after %d batches", ErrSamplerStalled, len(out), cfg.Count, batch)
		}
		for i := range xs {
			xs[i] = s.draw()
			ys[i] = s.draw()
			zs[i] = s.draw()
		}
		amps, err := s.Psi.Eval(xs, ys, zs)
		if err != nil {
			return out, err
		}

		if cfg.Normalization == PerBatch {
			runningMax = 0
		}
		for i, a := range amps {
			proxy := SquaredMagnitude(a)
			if proxy > runningMax {
				runningMax = proxy
			}
			if runningMax == 0 || proxy/runningMax < cfg.Threshold {
				continue
			}
			out = append(out, Sample{
				Position: mgl32.Vec3{float32(xs[i]), float32(ys[i]), float32(zs[i])},
				Proxy:    proxy,
				Max:      runningMax,
				Batch:    batch,
			})
			if len(out) == cfg.Count {
				break
			}
		}
	}
	return out, nil
}

// Particles samples and writes the accepted positions straight into particle records.
func (s *Sampler) Particles() ([]Particle, error) {
	samples, err := s.Sample()
	if err != nil {
		return nil, err
	}
	ps := make([]Particle, len(samples))
	for i := range samples {
		ps[i].Position = samples[i].Position
	}
	return ps, nil
}
