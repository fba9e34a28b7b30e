// Package gputest provides a recording gpu.Context for headless tests. It resolves program
// names by scanning GLSL declarations and tracks enough binding state to flag misuse.
package gputest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"github.com/gekko3d/orbital/rt/gpu"
)

// Call is one recorded command together with the draw state current when it was issued.
type Call struct {
	Name string
	Args []any

	Program     uint32
	DrawFBO     uint32
	ReadFBO     uint32
	VertexArray uint32
	Feedback    bool
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

type decl struct {
	name     string
	location int
}

type shader struct {
	stage    uint32
	uniforms []string
	ins      []decl
	outs     []decl
}

type program struct {
	uniforms map[string]int32
	attribs  map[string]int32
	outputs  map[string]int32
	varyings []string
	values   map[int32]any
}

type vertexArray struct {
	sources  map[uint32]uint32
	divisors map[uint32]uint32
}

type framebuffer struct {
	attachments map[uint32][2]int32
	drawBuffers []uint32
}

// Recorder implements gpu.Context in memory.
type Recorder struct {
	Calls   []Call
	Hazards []string

	// Missing lists features Supports reports as absent.
	Missing map[gpu.Feature]bool
	// Status, when non-zero, overrides every framebuffer completeness check.
	Status uint32

	Width, Height int32

	next         uint32
	shaders      map[uint32]*shader
	programs     map[uint32]*program
	buffers      map[uint32]int
	vertexArrays map[uint32]*vertexArray
	framebuffers map[uint32]*framebuffer
	renderbufs   map[uint32][2]int32
	textures     map[uint32][2]int32

	bound      map[uint32]uint32
	units      map[uint32]uint32
	activeUnit uint32
	enabled    map[uint32]bool

	current      uint32
	vao          uint32
	drawFBO      uint32
	readFBO      uint32
	renderbuffer uint32
	feedbackBuf  uint32
	capturing    bool
}

func NewRecorder(width, height int32) *Recorder {
	return &Recorder{
		Width:        width,
		Height:       height,
		Missing:      map[gpu.Feature]bool{},
		shaders:      map[uint32]*shader{},
		programs:     map[uint32]*program{},
		buffers:      map[uint32]int{},
		vertexArrays: map[uint32]*vertexArray{},
		framebuffers: map[uint32]*framebuffer{},
		renderbufs:   map[uint32][2]int32{},
		textures:     map[uint32][2]int32{},
		bound:        map[uint32]uint32{},
		units:        map[uint32]uint32{},
		enabled:      map[uint32]bool{},
		activeUnit:   gpu.Texture0,
	}
}

func (r *Recorder) record(name string, args ...any) {
	r.Calls = append(r.Calls, Call{
		Name:        name,
		Args:        args,
		Program:     r.current,
		DrawFBO:     r.drawFBO,
		ReadFBO:     r.readFBO,
		VertexArray: r.vao,
		Feedback:    r.capturing,
	})
}

func (r *Recorder) hazard(format string, args ...any) {
	r.Hazards = append(r.Hazards, fmt.Sprintf(format, args...))
}

func (r *Recorder) id() uint32 {
	r.next++
	return r.next
}

// Reset forgets recorded calls and hazards but keeps all object and binding state.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Hazards = nil
}

// Filter returns the recorded calls whose name is one of names, in issue order.
func (r *Recorder) Filter(names ...string) []Call {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Call
	for _, c := range r.Calls {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Count(name string) int {
	return len(r.Filter(name))
}

// Live is the number of GPU objects created and not yet deleted.
func (r *Recorder) Live() int {
	return len(r.shaders) + len(r.programs) + len(r.buffers) + len(r.vertexArrays) +
		len(r.framebuffers) + len(r.renderbufs) + len(r.textures)
}

func (r *Recorder) Enabled(capability uint32) bool { return r.enabled[capability] }

func (r *Recorder) TextureSize(tex uint32) (int32, int32, bool) {
	s, ok := r.textures[tex]
	return s[0], s[1], ok
}

func (r *Recorder) DrawBuffersOf(fbo uint32) []uint32 {
	if f, ok := r.framebuffers[fbo]; ok {
		return f.drawBuffers
	}
	return nil
}

// AttributeSource reports the buffer feeding attribute index of vertex array vao.
func (r *Recorder) AttributeSource(vao, index uint32) (uint32, bool) {
	v, ok := r.vertexArrays[vao]
	if !ok {
		return 0, false
	}
	b, ok := v.sources[index]
	return b, ok
}

func (r *Recorder) AttributeDivisor(vao, index uint32) uint32 {
	if v, ok := r.vertexArrays[vao]; ok {
		return v.divisors[index]
	}
	return 0
}

// UniformValue returns the last value uploaded to the named uniform of program.
func (r *Recorder) UniformValue(prog uint32, name string) (any, bool) {
	p, ok := r.programs[prog]
	if !ok {
		return nil, false
	}
	loc, ok := p.uniforms[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
	ioDecl      = regexp.MustCompile(`(?m)^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?(?:(?:flat|smooth|noperspective)\s+)?(in|out)\s+\w+\s+(\w+)\s*;`)
	errorDecl   = regexp.MustCompile(`(?m)^\s*#error\s*(.*)$`)
)

func (r *Recorder) CompileShader(stage uint32, source string) (uint32, error) {
	r.record("CompileShader", stage)
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("%w: 0:0: empty source", gpu.ErrShaderCompile)
	}
	if m := errorDecl.FindStringSubmatch(source); m != nil {
		return 0, fmt.Errorf("%w: 0:1: '#error' : %s", gpu.ErrShaderCompile, strings.TrimSpace(m[1]))
	}
	if !strings.Contains(source, "main(") {
		return 0, fmt.Errorf("%w: missing entry point main", gpu.ErrShaderCompile)
	}

	s := &shader{stage: stage}
	for _, m := range uniformDecl.FindAllStringSubmatch(source, -1) {
		s.uniforms = append(s.uniforms, m[1])
	}
	for _, m := range ioDecl.FindAllStringSubmatch(source, -1) {
		d := decl{name: m[3], location: -1}
		if m[1] != "" {
			d.location, _ = strconv.Atoi(m[1])
		}
		if m[2] == "in" {
			s.ins = append(s.ins, d)
		} else {
			s.outs = append(s.outs, d)
		}
	}
	id := r.id()
	r.shaders[id] = s
	return id, nil
}

// assign hands out locations: explicit layouts first, the rest in declaration order.
func assign(decls []decl) map[string]int32 {
	out := make(map[string]int32, len(decls))
	used := map[int]bool{}
	for _, d := range decls {
		if d.location >= 0 {
			out[d.name] = int32(d.location)
			used[d.location] = true
		}
	}
	next := 0
	for _, d := range decls {
		if d.location >= 0 {
			continue
		}
		for used[next] {
			next++
		}
		out[d.name] = int32(next)
		used[next] = true
	}
	return out
}

func (r *Recorder) LinkProgram(shaders []uint32, varyings []string) (uint32, error) {
	r.record("LinkProgram", len(shaders), varyings)
	var vs, fs *shader
	for _, id := range shaders {
		s, ok := r.shaders[id]
		if !ok {
			return 0, fmt.Errorf("%w: unknown shader %d", gpu.ErrProgramLink, id)
		}
		switch s.stage {
		case gpu.VertexShader:
			vs = s
		case gpu.FragmentShader:
			fs = s
		}
	}
	if vs == nil {
		return 0, fmt.Errorf("%w: no vertex shader attached", gpu.ErrProgramLink)
	}

	vouts := map[string]bool{}
	for _, d := range vs.outs {
		vouts[d.name] = true
	}
	for _, v := range varyings {
		if !vouts[v] {
			return 0, fmt.Errorf("%w: transform feedback varying %q is not written by the vertex stage", gpu.ErrProgramLink, v)
		}
	}

	p := &program{
		attribs:  assign(vs.ins),
		outputs:  map[string]int32{},
		varyings: append([]string(nil), varyings...),
		values:   map[int32]any{},
	}
	names := append([]string(nil), vs.uniforms...)
	if fs != nil {
		for _, d := range fs.ins {
			if !vouts[d.name] {
				return 0, fmt.Errorf("%w: fragment input %q has no matching vertex output", gpu.ErrProgramLink, d.name)
			}
		}
		p.outputs = assign(fs.outs)
		names = append(names, fs.uniforms...)
	}
	sort.Strings(names)
	p.uniforms = make(map[string]int32, len(names))
	for _, n := range names {
		if _, ok := p.uniforms[n]; !ok {
			p.uniforms[n] = int32(len(p.uniforms))
		}
	}

	id := r.id()
	r.programs[id] = p
	return id, nil
}

func (r *Recorder) DeleteShader(s uint32) {
	r.record("DeleteShader", s)
	delete(r.shaders, s)
}

func (r *Recorder) DeleteProgram(prog uint32) {
	r.record("DeleteProgram", prog)
	delete(r.programs, prog)
	if r.current == prog {
		r.current = 0
	}
}

func (r *Recorder) UseProgram(prog uint32) {
	r.record("UseProgram", prog)
	if _, ok := r.programs[prog]; !ok && prog != 0 {
		r.hazard("UseProgram: unknown program %d", prog)
	}
	r.current = prog
}

func (r *Recorder) lookup(prog uint32, table func(*program) map[string]int32, name string) int32 {
	p, ok := r.programs[prog]
	if !ok {
		return -1
	}
	if loc, ok := table(p)[name]; ok {
		return loc
	}
	return -1
}

func (r *Recorder) UniformLocation(prog uint32, name string) int32 {
	return r.lookup(prog, func(p *program) map[string]int32 { return p.uniforms }, name)
}

func (r *Recorder) AttribLocation(prog uint32, name string) int32 {
	return r.lookup(prog, func(p *program) map[string]int32 { return p.attribs }, name)
}

func (r *Recorder) FragDataLocation(prog uint32, name string) int32 {
	return r.lookup(prog, func(p *program) map[string]int32 { return p.outputs }, name)
}

func (r *Recorder) CreateBuffer() uint32 {
	id := r.id()
	r.buffers[id] = 0
	r.record("CreateBuffer", id)
	return id
}

func (r *Recorder) CreateFramebuffer() uint32 {
	id := r.id()
	r.framebuffers[id] = &framebuffer{attachments: map[uint32][2]int32{}}
	r.record("CreateFramebuffer", id)
	return id
}

func (r *Recorder) CreateVertexArray() uint32 {
	id := r.id()
	r.vertexArrays[id] = &vertexArray{sources: map[uint32]uint32{}, divisors: map[uint32]uint32{}}
	r.record("CreateVertexArray", id)
	return id
}

func (r *Recorder) CreateRenderbuffer() uint32 {
	id := r.id()
	r.renderbufs[id] = [2]int32{}
	r.record("CreateRenderbuffer", id)
	return id
}

func (r *Recorder) CreateTexture() uint32 {
	id := r.id()
	r.textures[id] = [2]int32{}
	r.record("CreateTexture", id)
	return id
}

func (r *Recorder) DeleteBuffer(b uint32) {
	r.record("DeleteBuffer", b)
	delete(r.buffers, b)
}

func (r *Recorder) DeleteFramebuffer(fbo uint32) {
	r.record("DeleteFramebuffer", fbo)
	delete(r.framebuffers, fbo)
}

func (r *Recorder) DeleteVertexArray(vao uint32) {
	r.record("DeleteVertexArray", vao)
	delete(r.vertexArrays, vao)
}

func (r *Recorder) DeleteRenderbuffer(rbo uint32) {
	r.record("DeleteRenderbuffer", rbo)
	delete(r.renderbufs, rbo)
}

func (r *Recorder) DeleteTexture(tex uint32) {
	r.record("DeleteTexture", tex)
	delete(r.textures, tex)
}

func (r *Recorder) BindBuffer(target, b uint32) {
	r.record("BindBuffer", target, b)
	r.bound[target] = b
}

func (r *Recorder) BindBufferBase(target, index, b uint32) {
	r.record("BindBufferBase", target, index, b)
	r.bound[target] = b
	if target == gpu.TransformFeedbackBuffer && index == 0 {
		r.feedbackBuf = b
	}
}

func (r *Recorder) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	r.record("BufferData", target, size, data != nil, usage)
	b := r.bound[target]
	if b == 0 {
		r.hazard("BufferData: no buffer bound to 0x%X", target)
		return
	}
	r.buffers[b] = size
}

func (r *Recorder) BufferSize(b uint32) int { return r.buffers[b] }

func (r *Recorder) BindVertexArray(vao uint32) {
	r.record("BindVertexArray", vao)
	r.vao = vao
}

func (r *Recorder) EnableVertexAttribArray(index uint32) {
	r.record("EnableVertexAttribArray", index)
}

func (r *Recorder) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	r.record("VertexAttribPointer", index, size, xtype, normalized, stride, offset)
	v, ok := r.vertexArrays[r.vao]
	if !ok {
		r.hazard("VertexAttribPointer: no vertex array bound")
		return
	}
	b := r.bound[gpu.ArrayBuffer]
	if b == 0 {
		r.hazard("VertexAttribPointer: no array buffer bound for attribute %d", index)
	}
	v.sources[index] = b
}

func (r *Recorder) VertexAttribDivisor(index, divisor uint32) {
	r.record("VertexAttribDivisor", index, divisor)
	if v, ok := r.vertexArrays[r.vao]; ok {
		v.divisors[index] = divisor
	}
}

func (r *Recorder) BindFramebuffer(target, fbo uint32) {
	r.record("BindFramebuffer", target, fbo)
	switch target {
	case gpu.ReadFramebuffer:
		r.readFBO = fbo
	case gpu.DrawFramebuffer:
		r.drawFBO = fbo
	default:
		r.readFBO, r.drawFBO = fbo, fbo
	}
}

func (r *Recorder) BindRenderbuffer(rbo uint32) {
	r.record("BindRenderbuffer", rbo)
	r.renderbuffer = rbo
}

func (r *Recorder) RenderbufferStorageMultisample(samples int32, format uint32, width, height int32) {
	r.record("RenderbufferStorageMultisample", samples, format, width, height)
	if r.renderbuffer == 0 {
		r.hazard("RenderbufferStorageMultisample: no renderbuffer bound")
		return
	}
	r.renderbufs[r.renderbuffer] = [2]int32{width, height}
}

func (r *Recorder) FramebufferRenderbuffer(target, attachment, rbo uint32) {
	r.record("FramebufferRenderbuffer", target, attachment, rbo)
	if f, ok := r.framebuffers[r.drawFBO]; ok {
		f.attachments[attachment] = r.renderbufs[rbo]
	}
}

func (r *Recorder) FramebufferTexture2D(target, attachment, tex uint32) {
	r.record("FramebufferTexture2D", target, attachment, tex)
	if f, ok := r.framebuffers[r.drawFBO]; ok {
		f.attachments[attachment] = r.textures[tex]
	}
}

func (r *Recorder) CheckFramebufferStatus(target uint32) uint32 {
	r.record("CheckFramebufferStatus", target)
	if r.Status != 0 {
		return r.Status
	}
	if r.drawFBO == 0 {
		return gpu.FramebufferComplete
	}
	f := r.framebuffers[r.drawFBO]
	if f == nil || len(f.attachments) == 0 {
		return 0x8CD7 // missing attachment
	}
	var size [2]int32
	first := true
	for _, s := range f.attachments {
		if s[0] <= 0 || s[1] <= 0 {
			return 0x8CD6 // incomplete attachment
		}
		if !first && s != size {
			return 0x8CD9 // incomplete dimensions
		}
		size, first = s, false
	}
	for _, b := range f.drawBuffers {
		if _, ok := f.attachments[b]; b != gpu.None && !ok {
			return 0x8CDB // incomplete draw buffer
		}
	}
	return gpu.FramebufferComplete
}

func (r *Recorder) DrawBuffers(bufs []uint32) {
	r.record("DrawBuffers", append([]uint32(nil), bufs...))
	if f, ok := r.framebuffers[r.drawFBO]; ok {
		f.drawBuffers = append([]uint32(nil), bufs...)
	}
}

func (r *Recorder) ActiveTexture(unit uint32) {
	r.record("ActiveTexture", unit)
	r.activeUnit = unit
}

func (r *Recorder) BindTexture(target, tex uint32) {
	r.record("BindTexture", target, tex)
	r.units[r.activeUnit] = tex
}

func (r *Recorder) TexParameteri(target, pname uint32, param int32) {
	r.record("TexParameteri", target, pname, param)
}

func (r *Recorder) TexStorage2D(target uint32, levels int32, format uint32, width, height int32) {
	r.record("TexStorage2D", target, levels, format, width, height)
	tex := r.units[r.activeUnit]
	if tex == 0 {
		r.hazard("TexStorage2D: no texture bound on unit %d", r.activeUnit-gpu.Texture0)
		return
	}
	r.textures[tex] = [2]int32{width, height}
}

func (r *Recorder) setUniform(name string, loc int32, v any) {
	r.record(name, loc, v)
	p, ok := r.programs[r.current]
	if !ok {
		r.hazard("%s: no program in use", name)
		return
	}
	if loc < 0 || int(loc) >= len(p.uniforms) {
		r.hazard("%s: location %d not in program %d", name, loc, r.current)
		return
	}
	p.values[loc] = v
}

func (r *Recorder) Uniform1i(loc int32, v int32)   { r.setUniform("Uniform1i", loc, v) }
func (r *Recorder) Uniform1f(loc int32, v float32) { r.setUniform("Uniform1f", loc, v) }

func (r *Recorder) Uniform3f(loc int32, x, y, z float32) {
	r.setUniform("Uniform3f", loc, [3]float32{x, y, z})
}

func (r *Recorder) UniformMatrix4fv(loc int32, m *[16]float32) {
	r.setUniform("UniformMatrix4fv", loc, *m)
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.record("Viewport", x, y, width, height)
}

func (r *Recorder) Enable(capability uint32) {
	r.record("Enable", capability)
	r.enabled[capability] = true
}

func (r *Recorder) Disable(capability uint32) {
	r.record("Disable", capability)
	delete(r.enabled, capability)
}

func (r *Recorder) ClearBufferfv(buffer uint32, drawBuffer int32, value [4]float32) {
	r.record("ClearBufferfv", buffer, drawBuffer, value)
}

func (r *Recorder) ClearBufferfi(drawBuffer int32, depth float32, stencil int32) {
	r.record("ClearBufferfi", drawBuffer, depth, stencil)
}

func (r *Recorder) BeginTransformFeedback(mode uint32) {
	r.record("BeginTransformFeedback", mode)
	if r.feedbackBuf == 0 {
		r.hazard("BeginTransformFeedback: no buffer bound for capture")
	}
	if r.capturing {
		r.hazard("BeginTransformFeedback: already active")
	}
	r.capturing = true
}

func (r *Recorder) EndTransformFeedback() {
	r.record("EndTransformFeedback")
	if !r.capturing {
		r.hazard("EndTransformFeedback: not active")
	}
	r.capturing = false
}

func (r *Recorder) checkDraw(name string) {
	if r.current == 0 {
		r.hazard("%s: no program in use", name)
	}
	if r.vao == 0 {
		r.hazard("%s: no vertex array bound", name)
	}
	if !r.capturing {
		return
	}
	if v, ok := r.vertexArrays[r.vao]; ok {
		for idx, b := range v.sources {
			if b == r.feedbackBuf {
				r.hazard("%s: buffer %d is captured into while sourcing attribute %d", name, b, idx)
			}
		}
	}
}

func (r *Recorder) DrawArrays(mode uint32, first, count int32) {
	r.record("DrawArrays", mode, first, count)
	r.checkDraw("DrawArrays")
}

func (r *Recorder) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	r.record("DrawArraysInstanced", mode, first, count, instances)
	r.checkDraw("DrawArraysInstanced")
}

func (r *Recorder) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	r.record("BlitFramebuffer", srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, filter)
	if r.readFBO == r.drawFBO {
		r.hazard("BlitFramebuffer: source and destination are both framebuffer %d", r.readFBO)
	}
}

// ReadPixels fills dst with a gradient: red follows x, green follows y.
func (r *Recorder) ReadPixels(x, y, width, height int32, format, xtype uint32, dst []byte) {
	r.record("ReadPixels", x, y, width, height, format, xtype)
	for j := int32(0); j < height; j++ {
		for i := int32(0); i < width; i++ {
			o := 4 * (j*width + i)
			if int(o)+3 >= len(dst) {
				return
			}
			dst[o] = byte(i)
			dst[o+1] = byte(j)
			dst[o+2] = 0
			dst[o+3] = 0xFF
		}
	}
}

func (r *Recorder) Supports(f gpu.Feature) bool { return !r.Missing[f] }

func (r *Recorder) DrawingBufferSize() (int32, int32) { return r.Width, r.Height }

// SetDrawingBufferSize mirrors a window resize.
func (r *Recorder) SetDrawingBufferSize(width, height int32) {
	r.Width, r.Height = width, height
}
