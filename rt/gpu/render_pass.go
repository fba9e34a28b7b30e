package gpu

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Default selects the default framebuffer (or no vertex array) in Activate.
const Default = -1

// PassDescriptor declares everything a RenderPass resolves up front.
type PassDescriptor struct {
	Label          string
	VertexSource   string
	FragmentSource string

	Framebuffers int
	VertexArrays int

	Uniforms   []string
	Attributes []string
	// Outputs are the fragment outputs in the order SetOutputTargets receives attachments.
	Outputs []string
	// FeedbackVaryings turns the pass into a transform feedback pass capturing these outputs.
	FeedbackVaryings []string
}

type Buffer struct {
	ID    uint32
	Size  int
	Usage uint32
}

// Texture is a sampled render target. ID changes when the owning pass is resized; the pointer
// handed out by AttachTexture stays valid.
type Texture struct {
	ID     uint32
	Unit   uint32
	Format uint32
	Width  int32
	Height int32
}

type attachment struct {
	fbo     int
	point   uint32
	format  uint32
	samples int32
	rbo     uint32
	tex     *Texture
}

// RenderPass owns one linked program, a fixed set of framebuffers and vertex arrays, and the
// resolved uniform, attribute and output tables for that program.
type RenderPass struct {
	Label string

	ctx     Context
	program uint32
	fbos    []uint32
	vaos    []uint32

	uniforms   map[string]int32
	attributes map[string]uint32
	outputs    map[string]uint32
	outOrder   []string

	attachments []*attachment
	buffers     []*Buffer
}

func NewRenderPass(ctx Context, desc PassDescriptor) (*RenderPass, error) {
	vs, err := ctx.CompileShader(VertexShader, desc.VertexSource)
	if err != nil {
		return nil, fmt.Errorf("render pass %q: vertex stage: %w", desc.Label, err)
	}
	shaders := []uint32{vs}
	if desc.FragmentSource != "" {
		fs, err := ctx.CompileShader(FragmentShader, desc.FragmentSource)
		if err != nil {
			ctx.DeleteShader(vs)
			return nil, fmt.Errorf("render pass %q: fragment stage: %w", desc.Label, err)
		}
		shaders = append(shaders, fs)
	}

	program, err := ctx.LinkProgram(shaders, desc.FeedbackVaryings)
	for _, s := range shaders {
		ctx.DeleteShader(s)
	}
	if err != nil {
		return nil, fmt.Errorf("render pass %q: %w", desc.Label, err)
	}

	p := &RenderPass{
		Label:      desc.Label,
		ctx:        ctx,
		program:    program,
		fbos:       make([]uint32, desc.Framebuffers),
		vaos:       make([]uint32, desc.VertexArrays),
		uniforms:   make(map[string]int32, len(desc.Uniforms)),
		attributes: make(map[string]uint32, len(desc.Attributes)),
		outputs:    make(map[string]uint32, len(desc.Outputs)),
		outOrder:   append([]string(nil), desc.Outputs...),
	}
	for i := range p.fbos {
		p.fbos[i] = ctx.CreateFramebuffer()
	}
	for i := range p.vaos {
		p.vaos[i] = ctx.CreateVertexArray()
	}

	var missing []string
	for _, name := range desc.Uniforms {
		loc := ctx.UniformLocation(program, name)
		if loc < 0 {
			missing = append(missing, "uniform "+name)
			continue
		}
		p.uniforms[name] = loc
	}
	for _, name := range desc.Attributes {
		loc := ctx.AttribLocation(program, name)
		if loc < 0 {
			missing = append(missing, "attribute "+name)
			continue
		}
		p.attributes[name] = uint32(loc)
	}
	for _, name := range desc.Outputs {
		loc := ctx.FragDataLocation(program, name)
		if loc < 0 {
			missing = append(missing, "output "+name)
			continue
		}
		p.outputs[name] = uint32(loc)
	}
	if len(missing) > 0 {
		p.Release()
		return nil, fmt.Errorf("render pass %q: %w: %s", desc.Label, ErrUnresolvedName, strings.Join(missing, ", "))
	}

	return p, nil
}

func (p *RenderPass) Program() uint32 { return p.program }

func (p *RenderPass) FramebufferCount() int { return len(p.fbos) }

func (p *RenderPass) VertexArrayCount() int { return len(p.vaos) }

// Framebuffer returns the object name of framebuffer i, or 0 for Default.
func (p *RenderPass) Framebuffer(i int) uint32 {
	if i == Default {
		return 0
	}
	if i < 0 || i >= len(p.fbos) {
		panic(fmt.Sprintf("render pass %q: framebuffer index %d out of range [0, %d)", p.Label, i, len(p.fbos)))
	}
	return p.fbos[i]
}

func (p *RenderPass) VertexArray(i int) uint32 {
	if i == Default {
		return 0
	}
	if i < 0 || i >= len(p.vaos) {
		panic(fmt.Sprintf("render pass %q: vertex array index %d out of range [0, %d)", p.Label, i, len(p.vaos)))
	}
	return p.vaos[i]
}

func (p *RenderPass) Uniform(name string) (int32, bool) {
	loc, ok := p.uniforms[name]
	return loc, ok
}

func (p *RenderPass) Attribute(name string) (uint32, bool) {
	loc, ok := p.attributes[name]
	return loc, ok
}

func (p *RenderPass) Output(name string) (uint32, bool) {
	loc, ok := p.outputs[name]
	return loc, ok
}

// Uniforms lists the registered uniform names, sorted.
func (p *RenderPass) Uniforms() []string {
	names := make([]string, 0, len(p.uniforms))
	for n := range p.uniforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AllocateBuffer creates an array buffer of sizeBytes with undefined contents.
func (p *RenderPass) AllocateBuffer(sizeBytes int, usage uint32) *Buffer {
	b := &Buffer{ID: p.ctx.CreateBuffer(), Size: sizeBytes, Usage: usage}
	p.ctx.BindBuffer(ArrayBuffer, b.ID)
	p.ctx.BufferData(ArrayBuffer, sizeBytes, nil, usage)
	p.ctx.BindBuffer(ArrayBuffer, 0)
	p.buffers = append(p.buffers, b)
	return b
}

// UploadBuffer creates an array buffer filled with data.
func (p *RenderPass) UploadBuffer(data []float32, usage uint32) *Buffer {
	size := len(data) * 4
	b := &Buffer{ID: p.ctx.CreateBuffer(), Size: size, Usage: usage}
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	p.ctx.BindBuffer(ArrayBuffer, b.ID)
	p.ctx.BufferData(ArrayBuffer, size, ptr, usage)
	p.ctx.BindBuffer(ArrayBuffer, 0)
	p.buffers = append(p.buffers, b)
	return b
}

// BindVertexAttribute points the named attribute of vertex array vao at buf. A zero divisor
// advances per vertex, n > 0 advances every n instances.
func (p *RenderPass) BindVertexAttribute(vao int, buf *Buffer, name string, components, stride int32, offset int, normalize bool, divisor uint32) {
	loc := p.attribute(name)
	p.ctx.BindVertexArray(p.VertexArray(vao))
	p.ctx.BindBuffer(ArrayBuffer, buf.ID)
	p.ctx.EnableVertexAttribArray(loc)
	p.ctx.VertexAttribPointer(loc, components, Float, normalize, stride, offset)
	p.ctx.VertexAttribDivisor(loc, divisor)
	p.ctx.BindBuffer(ArrayBuffer, 0)
	p.ctx.BindVertexArray(0)
}

// AttachRenderbuffer creates a renderbuffer sized to the drawing surface and attaches it.
func (p *RenderPass) AttachRenderbuffer(fbo int, samples int32, format, point uint32) {
	a := &attachment{fbo: fbo, point: point, format: format, samples: samples, rbo: p.ctx.CreateRenderbuffer()}
	w, h := p.ctx.DrawingBufferSize()
	p.allocateRenderbuffer(a, w, h)
	p.attachments = append(p.attachments, a)
}

func (p *RenderPass) allocateRenderbuffer(a *attachment, w, h int32) {
	p.ctx.BindFramebuffer(Framebuffer, p.Framebuffer(a.fbo))
	p.ctx.BindRenderbuffer(a.rbo)
	p.ctx.RenderbufferStorageMultisample(a.samples, a.format, w, h)
	p.ctx.FramebufferRenderbuffer(Framebuffer, a.point, a.rbo)
	p.ctx.BindRenderbuffer(0)
	p.ctx.BindFramebuffer(Framebuffer, 0)
}

// AttachTexture creates a texture on unit sized to the drawing surface and attaches it.
func (p *RenderPass) AttachTexture(fbo int, unit, format, point uint32) *Texture {
	a := &attachment{fbo: fbo, point: point, format: format, tex: &Texture{Unit: unit, Format: format}}
	w, h := p.ctx.DrawingBufferSize()
	p.allocateTexture(a, w, h)
	p.attachments = append(p.attachments, a)
	return a.tex
}

func (p *RenderPass) allocateTexture(a *attachment, w, h int32) {
	t := a.tex
	t.ID = p.ctx.CreateTexture()
	t.Width, t.Height = w, h

	p.ctx.BindFramebuffer(Framebuffer, p.Framebuffer(a.fbo))
	p.ctx.ActiveTexture(t.Unit)
	p.ctx.BindTexture(Texture2D, t.ID)
	p.ctx.TexParameteri(Texture2D, TextureMagFilter, int32(Nearest))
	p.ctx.TexParameteri(Texture2D, TextureMinFilter, int32(Nearest))
	p.ctx.TexParameteri(Texture2D, TextureWrapS, int32(ClampToEdge))
	p.ctx.TexParameteri(Texture2D, TextureWrapT, int32(ClampToEdge))
	p.ctx.TexStorage2D(Texture2D, 1, t.Format, w, h)
	p.ctx.FramebufferTexture2D(Framebuffer, a.point, t.ID)
	p.ctx.BindTexture(Texture2D, 0)
	p.ctx.BindFramebuffer(Framebuffer, 0)
}

// SetOutputTargets routes the declared outputs, in declaration order, to the given color
// attachments of framebuffer fbo and verifies the framebuffer is complete.
func (p *RenderPass) SetOutputTargets(fbo int, attachments ...uint32) error {
	if len(attachments) != len(p.outOrder) {
		return fmt.Errorf("render pass %q: %d attachments for %d outputs", p.Label, len(attachments), len(p.outOrder))
	}
	bufs := make([]uint32, len(attachments))
	for i, name := range p.outOrder {
		loc := p.outputs[name]
		if int(loc) >= len(bufs) {
			grown := make([]uint32, loc+1)
			copy(grown, bufs)
			bufs = grown
		}
		bufs[loc] = attachments[i]
	}

	p.ctx.BindFramebuffer(Framebuffer, p.Framebuffer(fbo))
	p.ctx.DrawBuffers(bufs)
	status := p.ctx.CheckFramebufferStatus(Framebuffer)
	p.ctx.BindFramebuffer(Framebuffer, 0)
	if status != FramebufferComplete {
		return fmt.Errorf("render pass %q: framebuffer %d: %w (status 0x%X)", p.Label, fbo, ErrFramebufferIncomplete, status)
	}
	return nil
}

// Activate makes this pass's program, framebuffer fbo and vertex array vao current.
func (p *RenderPass) Activate(fbo, vao int) {
	p.ctx.UseProgram(p.program)
	p.ctx.BindFramebuffer(Framebuffer, p.Framebuffer(fbo))
	p.ctx.BindVertexArray(p.VertexArray(vao))
}

func (p *RenderPass) uniform(name string) int32 {
	loc, ok := p.uniforms[name]
	if !ok {
		panic(fmt.Sprintf("render pass %q: uniform %q was not declared", p.Label, name))
	}
	return loc
}

func (p *RenderPass) attribute(name string) uint32 {
	loc, ok := p.attributes[name]
	if !ok {
		panic(fmt.Sprintf("render pass %q: attribute %q was not declared", p.Label, name))
	}
	return loc
}

// The uniform setters expect the pass to be active.

func (p *RenderPass) SetFloat(name string, v float32) {
	p.ctx.Uniform1f(p.uniform(name), v)
}

func (p *RenderPass) SetVec3(name string, v mgl32.Vec3) {
	p.ctx.Uniform3f(p.uniform(name), v[0], v[1], v[2])
}

func (p *RenderPass) SetMat4(name string, m mgl32.Mat4) {
	arr := [16]float32(m)
	p.ctx.UniformMatrix4fv(p.uniform(name), &arr)
}

// SetTexture binds tex on its unit and points the sampler uniform at that unit.
func (p *RenderPass) SetTexture(name string, tex *Texture) {
	loc := p.uniform(name)
	p.ctx.ActiveTexture(tex.Unit)
	p.ctx.BindTexture(Texture2D, tex.ID)
	p.ctx.Uniform1i(loc, int32(tex.Unit-Texture0))
}

// Resize reallocates every attachment at the new size. Texture pointers stay valid.
func (p *RenderPass) Resize(width, height int32) {
	for _, a := range p.attachments {
		if a.tex != nil {
			p.ctx.DeleteTexture(a.tex.ID)
			p.allocateTexture(a, width, height)
			continue
		}
		p.allocateRenderbuffer(a, width, height)
	}
}

// Release deletes every GPU object the pass owns.
func (p *RenderPass) Release() {
	for _, a := range p.attachments {
		if a.tex != nil {
			p.ctx.DeleteTexture(a.tex.ID)
		} else {
			p.ctx.DeleteRenderbuffer(a.rbo)
		}
	}
	for _, b := range p.buffers {
		p.ctx.DeleteBuffer(b.ID)
	}
	for _, v := range p.vaos {
		p.ctx.DeleteVertexArray(v)
	}
	for _, f := range p.fbos {
		p.ctx.DeleteFramebuffer(f)
	}
	p.ctx.DeleteProgram(p.program)
	p.attachments, p.buffers, p.vaos, p.fbos = nil, nil, nil, nil
	p.program = 0
}
