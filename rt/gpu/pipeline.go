package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Stage identifies one of the four pipeline passes, in execution order.
type Stage int

const (
	StageTransport Stage = iota
	StageGeometry
	StageOcclusion
	StageComposite
)

var Stages = [...]Stage{StageTransport, StageGeometry, StageOcclusion, StageComposite}

func (s Stage) String() string {
	switch s {
	case StageTransport:
		return "transport"
	case StageGeometry:
		return "geometry"
	case StageOcclusion:
		return "occlusion"
	case StageComposite:
		return "composite"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// FrameState is the per-frame input of the pipeline. The view matrix is mutated by orbit
// input between frames.
type FrameState struct {
	Time float64
	Dt   float32
	Proj mgl32.Mat4
	View mgl32.Mat4
}

// ShaderSources holds the program text for every stage. TransportFragment may be empty.
type ShaderSources struct {
	TransportVertex   string
	TransportFragment string
	GeometryVertex    string
	GeometryFragment  string
	FullscreenVertex  string
	OcclusionFragment string
	CompositeFragment string
}

type PipelineConfig struct {
	Shaders ShaderSources

	// Seed holds xyz per particle; its length fixes the particle count for the run.
	Seed []float32
	// MeshPositions and MeshNormals hold xyz per unrolled triangle corner.
	MeshPositions []float32
	MeshNormals   []float32

	ParticleScale float32
	Color         mgl32.Vec3
	Light         mgl32.Vec3
	Background    [4]float32

	// Azimuthal is the magnetic quantum number driving the transport flow.
	Azimuthal float32
	Speed     float32
	Spin      float32

	OcclusionRadius   float32
	OcclusionBias     float32
	OcclusionStrength float32
}

// Hooks are optional callbacks around every stage, used for profiling.
type Hooks struct {
	BeginStage func(Stage)
	EndStage   func(Stage)
}

// Names each stage's program must declare.
var (
	transportDesc = PassDescriptor{
		Label:            "transport",
		VertexArrays:     2,
		Uniforms:         []string{"u_dt", "u_m", "u_speed", "u_spin"},
		Attributes:       []string{"a_position"},
		FeedbackVaryings: []string{"v_position"},
	}
	geometryDesc = PassDescriptor{
		Label:        "geometry",
		Framebuffers: 1,
		VertexArrays: 2,
		Uniforms:     []string{"u_proj", "u_view", "u_scale", "u_color", "u_light"},
		Attributes:   []string{"a_position", "a_normal", "i_offset"},
		Outputs:      []string{"o_color", "o_data"},
	}
	occlusionDesc = PassDescriptor{
		Label:        "occlusion",
		Framebuffers: 1,
		VertexArrays: 1,
		Uniforms:     []string{"u_data", "u_proj", "u_radius", "u_bias"},
		Attributes:   []string{"a_position"},
		Outputs:      []string{"o_occlusion"},
	}
	compositeDesc = PassDescriptor{
		Label:        "composite",
		Framebuffers: 1,
		VertexArrays: 1,
		Uniforms:     []string{"u_base", "u_occlusion", "u_strength"},
		Attributes:   []string{"a_position"},
		Outputs:      []string{"o_color"},
	}
)

// Two triangles covering clip space.
var fullscreenQuad = []float32{
	-1, -1, 1, -1, 1, 1,
	-1, -1, 1, 1, -1, 1,
}

// Pipeline runs Transport, Geometry, Occlusion and Composite once per frame in that order.
type Pipeline struct {
	Transport *RenderPass
	Geometry  *RenderPass
	Occlusion *RenderPass
	Composite *RenderPass

	Hooks Hooks

	ctx      Context
	cfg      PipelineConfig
	feedback *FeedbackBuffers

	particles   int32
	meshCorners int32
	width       int32
	height      int32

	colorTarget     *Texture
	dataTarget      *Texture
	occlusionTarget *Texture
	compositeTarget *Texture
}

func NewPipeline(ctx Context, cfg PipelineConfig) (*Pipeline, error) {
	if err := RequireFeatures(ctx, FeatureTransformFeedback, FeatureColorBufferFloat); err != nil {
		return nil, err
	}
	if len(cfg.Seed) == 0 || len(cfg.Seed)%3 != 0 {
		return nil, fmt.Errorf("pipeline: seed holds %d floats, want a positive multiple of 3", len(cfg.Seed))
	}
	if len(cfg.MeshPositions) == 0 || len(cfg.MeshPositions)%9 != 0 || len(cfg.MeshNormals) != len(cfg.MeshPositions) {
		return nil, fmt.Errorf("pipeline: mesh holds %d positions and %d normals, want matching whole triangles",
			len(cfg.MeshPositions), len(cfg.MeshNormals))
	}

	p := &Pipeline{
		ctx:         ctx,
		cfg:         cfg,
		particles:   int32(len(cfg.Seed) / 3),
		meshCorners: int32(len(cfg.MeshPositions) / 3),
	}
	p.width, p.height = ctx.DrawingBufferSize()

	if err := p.buildPasses(); err != nil {
		p.Release()
		return nil, err
	}
	if err := p.buildTargets(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) buildPasses() error {
	var err error
	sh := p.cfg.Shaders

	d := transportDesc
	d.VertexSource, d.FragmentSource = sh.TransportVertex, sh.TransportFragment
	if p.Transport, err = NewRenderPass(p.ctx, d); err != nil {
		return err
	}
	d = geometryDesc
	d.VertexSource, d.FragmentSource = sh.GeometryVertex, sh.GeometryFragment
	if p.Geometry, err = NewRenderPass(p.ctx, d); err != nil {
		return err
	}
	d = occlusionDesc
	d.VertexSource, d.FragmentSource = sh.FullscreenVertex, sh.OcclusionFragment
	if p.Occlusion, err = NewRenderPass(p.ctx, d); err != nil {
		return err
	}
	d = compositeDesc
	d.VertexSource, d.FragmentSource = sh.FullscreenVertex, sh.CompositeFragment
	if p.Composite, err = NewRenderPass(p.ctx, d); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) buildTargets() error {
	// Vertex array i of both transport and geometry sources buffer i, so the array bound
	// while capturing into the write buffer never reads from it.
	p.feedback = NewFeedbackBuffers(p.Transport, p.cfg.Seed, StreamCopy)
	positions := p.Geometry.UploadBuffer(p.cfg.MeshPositions, StaticDraw)
	normals := p.Geometry.UploadBuffer(p.cfg.MeshNormals, StaticDraw)
	for i := 0; i < 2; i++ {
		buf := p.feedback.Buffer(i)
		p.Transport.BindVertexAttribute(i, buf, "a_position", 3, 0, 0, false, 0)
		p.Geometry.BindVertexAttribute(i, positions, "a_position", 3, 0, 0, false, 0)
		p.Geometry.BindVertexAttribute(i, normals, "a_normal", 3, 0, 0, false, 0)
		p.Geometry.BindVertexAttribute(i, buf, "i_offset", 3, 0, 0, false, 1)
	}

	p.colorTarget = p.Geometry.AttachTexture(0, Texture0, RGBA8, ColorAttachment0)
	p.dataTarget = p.Geometry.AttachTexture(0, Texture0+1, RGBA16F, ColorAttachment0+1)
	p.Geometry.AttachRenderbuffer(0, 0, Depth24Stencil8, DepthStencilAttachment)
	if err := p.Geometry.SetOutputTargets(0, ColorAttachment0, ColorAttachment0+1); err != nil {
		return err
	}

	quad := p.Occlusion.UploadBuffer(fullscreenQuad, StaticDraw)
	p.Occlusion.BindVertexAttribute(0, quad, "a_position", 2, 0, 0, false, 0)
	p.occlusionTarget = p.Occlusion.AttachTexture(0, Texture0+2, R8, ColorAttachment0)
	if err := p.Occlusion.SetOutputTargets(0, ColorAttachment0); err != nil {
		return err
	}

	quad = p.Composite.UploadBuffer(fullscreenQuad, StaticDraw)
	p.Composite.BindVertexAttribute(0, quad, "a_position", 2, 0, 0, false, 0)
	p.compositeTarget = p.Composite.AttachTexture(0, Texture0+3, RGBA8, ColorAttachment0)
	return p.Composite.SetOutputTargets(0, ColorAttachment0)
}

func (p *Pipeline) Feedback() *FeedbackBuffers { return p.feedback }

// Passes returns the four passes in execution order.
func (p *Pipeline) Passes() []*RenderPass {
	return []*RenderPass{p.Transport, p.Geometry, p.Occlusion, p.Composite}
}

func (p *Pipeline) ParticleCount() int   { return int(p.particles) }
func (p *Pipeline) MeshVertexCount() int { return int(p.meshCorners) }
func (p *Pipeline) Size() (int32, int32) { return p.width, p.height }

func (p *Pipeline) ColorTarget() *Texture     { return p.colorTarget }
func (p *Pipeline) DataTarget() *Texture      { return p.dataTarget }
func (p *Pipeline) OcclusionTarget() *Texture { return p.occlusionTarget }
func (p *Pipeline) CompositeTarget() *Texture { return p.compositeTarget }

// Frame executes all four stages once.
func (p *Pipeline) Frame(f *FrameState) {
	p.run(StageTransport, f, p.transport)
	p.run(StageGeometry, f, p.geometry)
	p.run(StageOcclusion, f, p.occlusion)
	p.run(StageComposite, f, p.composite)
}

func (p *Pipeline) run(s Stage, f *FrameState, fn func(*FrameState)) {
	if p.Hooks.BeginStage != nil {
		p.Hooks.BeginStage(s)
	}
	fn(f)
	if p.Hooks.EndStage != nil {
		p.Hooks.EndStage(s)
	}
}

func (p *Pipeline) transport(f *FrameState) {
	p.Transport.Activate(Default, p.feedback.ReadIndex())
	p.Transport.SetFloat("u_dt", f.Dt)
	p.Transport.SetFloat("u_m", p.cfg.Azimuthal)
	p.Transport.SetFloat("u_speed", p.cfg.Speed)
	p.Transport.SetFloat("u_spin", p.cfg.Spin)

	p.ctx.Enable(RasterizerDiscard)
	p.ctx.BindBufferBase(TransformFeedbackBuffer, 0, p.feedback.Write().ID)
	p.ctx.BeginTransformFeedback(Points)
	p.ctx.DrawArrays(Points, 0, p.particles)
	p.ctx.EndTransformFeedback()
	p.ctx.BindBufferBase(TransformFeedbackBuffer, 0, 0)
	p.ctx.Disable(RasterizerDiscard)

	p.feedback.Swap()
}

func (p *Pipeline) geometry(f *FrameState) {
	p.Geometry.Activate(0, p.feedback.ReadIndex())
	p.ctx.Viewport(0, 0, p.width, p.height)
	p.ctx.Enable(DepthTest)
	p.ctx.Enable(CullFace)
	p.ctx.ClearBufferfv(Color, 0, p.cfg.Background)
	p.ctx.ClearBufferfv(Color, 1, [4]float32{})
	p.ctx.ClearBufferfi(0, 1, 0)

	p.Geometry.SetMat4("u_proj", f.Proj)
	p.Geometry.SetMat4("u_view", f.View)
	p.Geometry.SetFloat("u_scale", p.cfg.ParticleScale)
	p.Geometry.SetVec3("u_color", p.cfg.Color)
	p.Geometry.SetVec3("u_light", p.cfg.Light)
	p.ctx.DrawArraysInstanced(Triangles, 0, p.meshCorners, p.particles)

	p.ctx.Disable(CullFace)
	p.ctx.Disable(DepthTest)
}

func (p *Pipeline) occlusion(f *FrameState) {
	p.Occlusion.Activate(0, 0)
	p.ctx.ClearBufferfv(Color, 0, [4]float32{1, 1, 1, 1})
	p.Occlusion.SetTexture("u_data", p.dataTarget)
	p.Occlusion.SetMat4("u_proj", f.Proj)
	p.Occlusion.SetFloat("u_radius", p.cfg.OcclusionRadius)
	p.Occlusion.SetFloat("u_bias", p.cfg.OcclusionBias)
	p.ctx.DrawArrays(Triangles, 0, 6)
}

func (p *Pipeline) composite(*FrameState) {
	p.Composite.Activate(0, 0)
	p.Composite.SetTexture("u_base", p.colorTarget)
	p.Composite.SetTexture("u_occlusion", p.occlusionTarget)
	p.Composite.SetFloat("u_strength", p.cfg.OcclusionStrength)
	p.ctx.DrawArrays(Triangles, 0, 6)

	p.ctx.BindFramebuffer(ReadFramebuffer, p.Composite.Framebuffer(0))
	p.ctx.BindFramebuffer(DrawFramebuffer, 0)
	p.ctx.BlitFramebuffer(0, 0, p.width, p.height, 0, 0, p.width, p.height, ColorBufferBit, Nearest)
	p.ctx.BindFramebuffer(Framebuffer, 0)
}

// ReadComposite copies the last composited frame into dst as bottom-up RGBA8 rows and
// returns its size. dst must hold at least 4*width*height bytes.
func (p *Pipeline) ReadComposite(dst []byte) (int32, int32, error) {
	need := int(4 * p.width * p.height)
	if len(dst) < need {
		return 0, 0, fmt.Errorf("pipeline: readback needs %d bytes, have %d", need, len(dst))
	}
	p.ctx.BindFramebuffer(ReadFramebuffer, p.Composite.Framebuffer(0))
	p.ctx.ReadPixels(0, 0, p.width, p.height, RGBA, UnsignedByte, dst[:need])
	p.ctx.BindFramebuffer(ReadFramebuffer, 0)
	return p.width, p.height, nil
}

// Resize reallocates every render target at the new surface size. Non-positive sizes,
// as reported for minimized windows, are ignored.
func (p *Pipeline) Resize(width, height int32) bool {
	if width <= 0 || height <= 0 || (width == p.width && height == p.height) {
		return false
	}
	p.width, p.height = width, height
	for _, pass := range p.Passes() {
		pass.Resize(width, height)
	}
	return true
}

// Release deletes all GPU objects. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	for _, pass := range p.Passes() {
		if pass != nil {
			pass.Release()
		}
	}
	p.Transport, p.Geometry, p.Occlusion, p.Composite = nil, nil, nil, nil
}
