package gpu

import (
	"errors"
	"fmt"
	"unsafe"
)

// Enumerants share their numeric values with OpenGL so a GL backend passes them through.
const (
	None uint32 = 0

	VertexShader   uint32 = 0x8B31
	FragmentShader uint32 = 0x8B30

	ArrayBuffer             uint32 = 0x8892
	TransformFeedbackBuffer uint32 = 0x8C8E

	StaticDraw  uint32 = 0x88E4
	DynamicDraw uint32 = 0x88E8
	StreamDraw  uint32 = 0x88E0
	DynamicCopy uint32 = 0x88EA
	StreamCopy  uint32 = 0x88E2

	Float uint32 = 0x1406

	Framebuffer     uint32 = 0x8D40
	ReadFramebuffer uint32 = 0x8CA8
	DrawFramebuffer uint32 = 0x8CA9
	Renderbuffer    uint32 = 0x8D41

	ColorAttachment0       uint32 = 0x8CE0
	DepthAttachment        uint32 = 0x8D00
	DepthStencilAttachment uint32 = 0x821A

	FramebufferComplete uint32 = 0x8CD5

	Texture2D uint32 = 0x0DE1
	Texture0  uint32 = 0x84C0

	RGBA8            uint32 = 0x8058
	RGBA16F          uint32 = 0x881A
	RGBA32F          uint32 = 0x8814
	R8               uint32 = 0x8229
	R16F             uint32 = 0x822D
	Depth24Stencil8  uint32 = 0x88F0
	DepthComponent24 uint32 = 0x81A6

	RGBA          uint32 = 0x1908
	Red           uint32 = 0x1903
	UnsignedByte  uint32 = 0x1401
	HalfFloat     uint32 = 0x140B
	DepthStencil  uint32 = 0x84F9
	UnsignedInt24 uint32 = 0x84FA // UNSIGNED_INT_24_8

	TextureMagFilter uint32 = 0x2800
	TextureMinFilter uint32 = 0x2801
	TextureWrapS     uint32 = 0x2802
	TextureWrapT     uint32 = 0x2803
	Nearest          uint32 = 0x2600
	Linear           uint32 = 0x2601
	ClampToEdge      uint32 = 0x812F

	DepthTest         uint32 = 0x0B71
	CullFace          uint32 = 0x0B44
	Blend             uint32 = 0x0BE2
	RasterizerDiscard uint32 = 0x8C89

	Points    uint32 = 0x0000
	Triangles uint32 = 0x0004

	ColorBufferBit   uint32 = 0x4000
	DepthBufferBit   uint32 = 0x0100
	StencilBufferBit uint32 = 0x0400

	Color uint32 = 0x1800
	Depth uint32 = 0x1801

	SeparateAttribs uint32 = 0x8C8D
)

// Feature names an optional capability probed at startup.
type Feature int

const (
	FeatureColorBufferFloat Feature = iota
	FeatureTransformFeedback
)

func (f Feature) String() string {
	switch f {
	case FeatureColorBufferFloat:
		return "color-buffer-float"
	case FeatureTransformFeedback:
		return "transform-feedback"
	}
	return "unknown-feature"
}

var (
	ErrShaderCompile         = errors.New("shader compile failed")
	ErrProgramLink           = errors.New("program link failed")
	ErrUnresolvedName        = errors.New("name not found in program")
	ErrFramebufferIncomplete = errors.New("framebuffer incomplete")
	ErrMissingFeature        = errors.New("required GPU feature missing")
)

// Context is the GPU command surface the render passes are written against. Handles are
// plain object names; zero means "none" or "default".
type Context interface {
	CompileShader(stage uint32, source string) (uint32, error)
	// LinkProgram links the shaders; varyings, when present, are captured with separate attribs.
	LinkProgram(shaders []uint32, varyings []string) (uint32, error)
	DeleteShader(shader uint32)
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	UniformLocation(program uint32, name string) int32
	AttribLocation(program uint32, name string) int32
	FragDataLocation(program uint32, name string) int32

	CreateBuffer() uint32
	CreateFramebuffer() uint32
	CreateVertexArray() uint32
	CreateRenderbuffer() uint32
	CreateTexture() uint32
	DeleteBuffer(buffer uint32)
	DeleteFramebuffer(fbo uint32)
	DeleteVertexArray(vao uint32)
	DeleteRenderbuffer(rbo uint32)
	DeleteTexture(tex uint32)

	BindBuffer(target, buffer uint32)
	BindBufferBase(target, index, buffer uint32)
	// BufferData allocates size bytes on the bound buffer and fills them from data when non-nil.
	BufferData(target uint32, size int, data unsafe.Pointer, usage uint32)
	BufferSize(buffer uint32) int

	BindVertexArray(vao uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)
	VertexAttribDivisor(index, divisor uint32)

	BindFramebuffer(target, fbo uint32)
	BindRenderbuffer(rbo uint32)
	RenderbufferStorageMultisample(samples int32, format uint32, width, height int32)
	FramebufferRenderbuffer(target, attachment, rbo uint32)
	FramebufferTexture2D(target, attachment, tex uint32)
	CheckFramebufferStatus(target uint32) uint32
	DrawBuffers(buffers []uint32)

	ActiveTexture(unit uint32)
	BindTexture(target, tex uint32)
	TexParameteri(target, pname uint32, param int32)
	TexStorage2D(target uint32, levels int32, format uint32, width, height int32)

	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	Uniform3f(location int32, x, y, z float32)
	UniformMatrix4fv(location int32, m *[16]float32)

	Viewport(x, y, width, height int32)
	Enable(capability uint32)
	Disable(capability uint32)
	ClearBufferfv(buffer uint32, drawBuffer int32, value [4]float32)
	ClearBufferfi(drawBuffer int32, depth float32, stencil int32)

	BeginTransformFeedback(mode uint32)
	EndTransformFeedback()
	DrawArrays(mode uint32, first, count int32)
	DrawArraysInstanced(mode uint32, first, count, instances int32)
	BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32)
	ReadPixels(x, y, width, height int32, format, xtype uint32, dst []byte)

	Supports(feature Feature) bool
	DrawingBufferSize() (width, height int32)
}

// RequireFeatures fails with ErrMissingFeature on the first unsupported capability.
func RequireFeatures(ctx Context, features ...Feature) error {
	for _, f := range features {
		if !ctx.Supports(f) {
			return fmt.Errorf("%w: %s", ErrMissingFeature, f)
		}
	}
	return nil
}
