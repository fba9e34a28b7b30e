package orbital

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/orbital/rt/core"
	"github.com/gekko3d/orbital/rt/gpu"
	"github.com/gekko3d/orbital/rt/gpu/glbackend"
	"github.com/gekko3d/orbital/rt/shaders"
)

var (
	particleColor = mgl32.Vec3{0.25, 0.45, 0.9}
	// View-space light position, above and to the right of the camera.
	lightPosition = mgl32.Vec3{10, 15, 5}
	clearColor    = [4]float32{1, 1, 1, 1}
)

// Surface is the presentable window the pipeline draws into.
type Surface interface {
	FramebufferSize() (int, int)
	OnFramebufferResize(fn func(width, height int))
	SwapBuffers()
}

// ContextFactory creates the GPU context once the window's GL context is current.
type ContextFactory func(width, height int32) (gpu.Context, error)

func newGLContext(width, height int32) (gpu.Context, error) {
	return glbackend.New(width, height)
}

type drawingBufferSizer interface {
	SetDrawingBufferSize(width, height int32)
}

// OrbitalModule samples the configured orbital and renders it every frame.
type OrbitalModule struct {
	Config Config
	// Surface defaults to the WindowState resource.
	Surface Surface
	// NewContext defaults to the OpenGL backend.
	NewContext ContextFactory
}

type OrbitalState struct {
	Psi      *core.Psi
	Mesh     *core.IcoSphere
	Context  gpu.Context
	Pipeline *gpu.Pipeline

	surface    Surface
	newContext ContextFactory
}

func (mod OrbitalModule) Install(app *App, cmd *Commands) {
	cfg := mod.Config
	newContext := mod.NewContext
	if newContext == nil {
		newContext = newGLContext
	}

	cmd.AddResources(
		&cfg,
		NewFrameState(cfg.Camera),
		NewProfiler(),
		&OrbitalState{surface: mod.Surface, newContext: newContext},
	)

	app.UseSystem(
		System(orbitalStartupSystem).
			InStage(Startup),
	)
	app.UseSystem(
		System(orbitalResizeSystem).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(orbitalRenderSystem).
			InStage(Render),
	)
	app.UseSystem(
		System(profilerReportSystem).
			InStage(PostRender),
	)
	app.UseSystem(
		System(orbitalShutdownSystem).
			InStage(Shutdown),
	)
}

func orbitalStartupSystem(s *OrbitalState, cfg *Config, state *FrameState, profiler *Profiler, app *App) {
	if err := s.start(cfg, state, profiler, app); err != nil {
		s.release()
		app.Logger().Errorf("orbital: %v", err)
		panic(fmt.Sprintf("orbital: %v", err))
	}
}

func (s *OrbitalState) start(cfg *Config, state *FrameState, profiler *Profiler, app *App) error {
	log := app.Logger()

	psi, err := core.NewPsi(cfg.Orbital.N, cfg.Orbital.L, cfg.Orbital.M)
	if err != nil {
		return err
	}
	sampler, err := core.NewSampler(psi, cfg.SamplerConfig())
	if err != nil {
		return err
	}
	particles, err := sampler.Particles()
	if err != nil {
		return fmt.Errorf("sample %s: %w", psi, err)
	}
	mesh := core.NewIcoSphere(cfg.Mesh.Subdivision)
	s.Psi, s.Mesh = psi, mesh
	log.Infof("sampled %d particles for %s", len(particles), psi)

	if s.surface == nil {
		ws, ok := Resource[WindowState](app)
		if !ok {
			return errors.New("no window to render into")
		}
		s.surface = ws
	}
	width, height := s.surface.FramebufferSize()

	ctx, err := s.newContext(int32(width), int32(height))
	if err != nil {
		return err
	}
	s.Context = ctx
	if glctx, ok := ctx.(*glbackend.Context); ok {
		info := glctx.Info()
		log.Infof("OpenGL %s (GLSL %s) on %s %s", info.Version, info.GLSL, info.Vendor, info.Renderer)
	}

	s.Pipeline, err = gpu.NewPipeline(ctx, gpu.PipelineConfig{
		Shaders:           shaders.Sources(),
		Seed:              core.ParticleFloats(particles),
		MeshPositions:     mesh.Positions(),
		MeshNormals:       mesh.Normals(),
		ParticleScale:     cfg.Mesh.Scale,
		Color:             particleColor,
		Light:             lightPosition,
		Background:        clearColor,
		Azimuthal:         float32(cfg.Orbital.M),
		Speed:             cfg.Transport.Speed,
		Spin:              cfg.Transport.Spin,
		OcclusionRadius:   cfg.Occlusion.Radius,
		OcclusionBias:     cfg.Occlusion.Bias,
		OcclusionStrength: cfg.Occlusion.Strength,
	})
	if err != nil {
		return err
	}

	state.ApplyViewport(width, height)
	s.surface.OnFramebufferResize(state.QueueResize)

	profiler.SetCount("particles", s.Pipeline.ParticleCount())
	profiler.SetCount("mesh vertices", s.Pipeline.MeshVertexCount())
	if log.DebugEnabled() {
		s.Pipeline.Hooks = profiler.StageHooks()
	}
	log.Debugf("pipeline ready at %dx%d", width, height)
	return nil
}

func orbitalResizeSystem(s *OrbitalState, state *FrameState, cmd *Commands) {
	width, height, ok := state.TakeResize()
	if !ok || s.Pipeline == nil || width <= 0 || height <= 0 {
		return
	}
	if sized, ok := s.Context.(drawingBufferSizer); ok {
		sized.SetDrawingBufferSize(int32(width), int32(height))
	}
	if s.Pipeline.Resize(int32(width), int32(height)) {
		state.ApplyViewport(width, height)
		cmd.Logger().Debugf("resized render targets to %dx%d", width, height)
	}
}

func orbitalRenderSystem(s *OrbitalState, state *FrameState) {
	if s.Pipeline == nil {
		return
	}
	s.Pipeline.Frame(&state.FrameState)
	s.surface.SwapBuffers()
}

func orbitalShutdownSystem(s *OrbitalState) {
	s.release()
}

func (s *OrbitalState) release() {
	if s.Pipeline != nil {
		s.Pipeline.Release()
		s.Pipeline = nil
	}
}
