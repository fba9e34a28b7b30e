// Package glbackend implements gpu.Context on an OpenGL 4.1 core profile context. All
// methods must be called on the thread that owns the current GL context.
package glbackend

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gekko3d/orbital/rt/gpu"
)

type Info struct {
	Vendor   string
	Renderer string
	Version  string
	GLSL     string
}

type Context struct {
	width, height int32
	major, minor  int32
	extensions    map[string]bool
}

// New loads the GL entry points for the current context. width and height are the
// framebuffer size in pixels.
func New(width, height int32) (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	c := &Context{width: width, height: height, extensions: map[string]bool{}}
	gl.GetIntegerv(gl.MAJOR_VERSION, &c.major)
	gl.GetIntegerv(gl.MINOR_VERSION, &c.minor)

	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := uint32(0); i < uint32(n); i++ {
		c.extensions[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i))] = true
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	return c, nil
}

func (c *Context) Info() Info {
	return Info{
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		GLSL:     gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
}

// SetDrawingBufferSize records the framebuffer size after the window was resized.
func (c *Context) SetDrawingBufferSize(width, height int32) {
	c.width, c.height = width, height
}

func (c *Context) DrawingBufferSize() (int32, int32) { return c.width, c.height }

func (c *Context) atLeast(major, minor int32) bool {
	return c.major > major || (c.major == major && c.minor >= minor)
}

func (c *Context) Supports(f gpu.Feature) bool {
	switch f {
	case gpu.FeatureColorBufferFloat:
		return c.atLeast(3, 0) || c.extensions["GL_ARB_color_buffer_float"]
	case gpu.FeatureTransformFeedback:
		return c.atLeast(3, 0) || c.extensions["GL_EXT_transform_feedback"]
	}
	return false
}

func cstr(s string) *uint8 { return gl.Str(s + "\x00") }

func (c *Context) CompileShader(stage uint32, source string) (uint32, error) {
	handle := gl.CreateShader(stage)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("%w: %s", gpu.ErrShaderCompile, strings.TrimRight(msg, "\x00\n"))
	}
	return handle, nil
}

func (c *Context) LinkProgram(shaders []uint32, varyings []string) (uint32, error) {
	handle := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(handle, s)
	}
	if len(varyings) > 0 {
		names := make([]string, len(varyings))
		for i, v := range varyings {
			names[i] = v + "\x00"
		}
		cnames, free := gl.Strs(names...)
		gl.TransformFeedbackVaryings(handle, int32(len(names)), cnames, gl.SEPARATE_ATTRIBS)
		free()
	}
	gl.LinkProgram(handle)
	for _, s := range shaders {
		gl.DetachShader(handle, s)
	}

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return 0, fmt.Errorf("%w: %s", gpu.ErrProgramLink, strings.TrimRight(msg, "\x00\n"))
	}
	return handle, nil
}

func (c *Context) DeleteShader(s uint32)     { gl.DeleteShader(s) }
func (c *Context) DeleteProgram(prog uint32) { gl.DeleteProgram(prog) }
func (c *Context) UseProgram(prog uint32)    { gl.UseProgram(prog) }

func (c *Context) UniformLocation(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, cstr(name))
}

func (c *Context) AttribLocation(prog uint32, name string) int32 {
	return gl.GetAttribLocation(prog, cstr(name))
}

func (c *Context) FragDataLocation(prog uint32, name string) int32 {
	return gl.GetFragDataLocation(prog, cstr(name))
}

func (c *Context) CreateBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (c *Context) CreateFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (c *Context) CreateVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (c *Context) CreateRenderbuffer() uint32 {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	return id
}

func (c *Context) CreateTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (c *Context) DeleteBuffer(b uint32)         { gl.DeleteBuffers(1, &b) }
func (c *Context) DeleteFramebuffer(fbo uint32)  { gl.DeleteFramebuffers(1, &fbo) }
func (c *Context) DeleteVertexArray(vao uint32)  { gl.DeleteVertexArrays(1, &vao) }
func (c *Context) DeleteRenderbuffer(rbo uint32) { gl.DeleteRenderbuffers(1, &rbo) }
func (c *Context) DeleteTexture(tex uint32)      { gl.DeleteTextures(1, &tex) }

func (c *Context) BindBuffer(target, b uint32) { gl.BindBuffer(target, b) }

func (c *Context) BindBufferBase(target, index, b uint32) { gl.BindBufferBase(target, index, b) }

func (c *Context) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	gl.BufferData(target, size, data, usage)
}

func (c *Context) BufferSize(b uint32) int {
	var size int32
	gl.BindBuffer(gl.COPY_READ_BUFFER, b)
	gl.GetBufferParameteriv(gl.COPY_READ_BUFFER, gl.BUFFER_SIZE, &size)
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	return int(size)
}

func (c *Context) BindVertexArray(vao uint32)           { gl.BindVertexArray(vao) }
func (c *Context) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (c *Context) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, xtype, normalized, stride, gl.PtrOffset(offset))
}

func (c *Context) VertexAttribDivisor(index, divisor uint32) { gl.VertexAttribDivisor(index, divisor) }

func (c *Context) BindFramebuffer(target, fbo uint32) { gl.BindFramebuffer(target, fbo) }
func (c *Context) BindRenderbuffer(rbo uint32)        { gl.BindRenderbuffer(gl.RENDERBUFFER, rbo) }

func (c *Context) RenderbufferStorageMultisample(samples int32, format uint32, width, height int32) {
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, samples, format, width, height)
}

func (c *Context) FramebufferRenderbuffer(target, attachment, rbo uint32) {
	gl.FramebufferRenderbuffer(target, attachment, gl.RENDERBUFFER, rbo)
}

func (c *Context) FramebufferTexture2D(target, attachment, tex uint32) {
	gl.FramebufferTexture2D(target, attachment, gl.TEXTURE_2D, tex, 0)
}

func (c *Context) CheckFramebufferStatus(target uint32) uint32 {
	return gl.CheckFramebufferStatus(target)
}

func (c *Context) DrawBuffers(bufs []uint32) {
	if len(bufs) == 0 {
		none := uint32(gl.NONE)
		gl.DrawBuffers(1, &none)
		return
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

func (c *Context) ActiveTexture(unit uint32)      { gl.ActiveTexture(unit) }
func (c *Context) BindTexture(target, tex uint32) { gl.BindTexture(target, tex) }

func (c *Context) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

// pixelFormat maps a sized internal format to the client format and type TexImage2D needs.
func pixelFormat(internal uint32) (format, xtype uint32) {
	switch internal {
	case gl.RGBA16F:
		return gl.RGBA, gl.HALF_FLOAT
	case gl.RGBA32F:
		return gl.RGBA, gl.FLOAT
	case gl.R8:
		return gl.RED, gl.UNSIGNED_BYTE
	case gl.R16F:
		return gl.RED, gl.HALF_FLOAT
	case gl.DEPTH24_STENCIL8:
		return gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8
	case gl.DEPTH_COMPONENT24:
		return gl.DEPTH_COMPONENT, gl.UNSIGNED_INT
	}
	return gl.RGBA, gl.UNSIGNED_BYTE
}

// TexStorage2D emulates immutable storage, which 4.1 core lacks, with per-level TexImage2D.
func (c *Context) TexStorage2D(target uint32, levels int32, format uint32, width, height int32) {
	pf, pt := pixelFormat(format)
	w, h := width, height
	for level := int32(0); level < levels; level++ {
		gl.TexImage2D(target, level, int32(format), w, h, 0, pf, pt, nil)
		w, h = max(w/2, 1), max(h/2, 1)
	}
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, levels-1)
}

func (c *Context) Uniform1i(loc int32, v int32)         { gl.Uniform1i(loc, v) }
func (c *Context) Uniform1f(loc int32, v float32)       { gl.Uniform1f(loc, v) }
func (c *Context) Uniform3f(loc int32, x, y, z float32) { gl.Uniform3f(loc, x, y, z) }

func (c *Context) UniformMatrix4fv(loc int32, m *[16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (c *Context) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (c *Context) Enable(capability uint32)           { gl.Enable(capability) }
func (c *Context) Disable(capability uint32)          { gl.Disable(capability) }

func (c *Context) ClearBufferfv(buffer uint32, drawBuffer int32, value [4]float32) {
	gl.ClearBufferfv(buffer, drawBuffer, &value[0])
}

func (c *Context) ClearBufferfi(drawBuffer int32, depth float32, stencil int32) {
	gl.ClearBufferfi(gl.DEPTH_STENCIL, drawBuffer, depth, stencil)
}

func (c *Context) BeginTransformFeedback(mode uint32) { gl.BeginTransformFeedback(mode) }
func (c *Context) EndTransformFeedback()              { gl.EndTransformFeedback() }

func (c *Context) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (c *Context) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	gl.DrawArraysInstanced(mode, first, count, instances)
}

func (c *Context) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	gl.BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, filter)
}

func (c *Context) ReadPixels(x, y, width, height int32, format, xtype uint32, dst []byte) {
	if len(dst) == 0 {
		return
	}
	gl.ReadPixels(x, y, width, height, format, xtype, gl.Ptr(&dst[0]))
}

var _ gpu.Context = (*Context)(nil)
