package gpu_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/orbital/rt/gpu"
	"github.com/gekko3d/orbital/rt/gpu/gputest"
)

const testVert = `#version 410 core
uniform mat4 u_mvp;
uniform float u_size;
layout(location = 0) in vec3 a_position;
layout(location = 1) in vec3 a_normal;
out vec3 v_normal;
void main() {
    v_normal = a_normal;
    gl_Position = u_mvp * vec4(a_position * u_size, 1.0);
}
`

const testFrag = `#version 410 core
uniform vec3 u_tint;
uniform sampler2D u_tex;
in vec3 v_normal;
layout(location = 0) out vec4 o_color;
layout(location = 1) out vec4 o_extra;
void main() {
    o_color = vec4(u_tint * texture(u_tex, v_normal.xy).rgb, 1.0);
    o_extra = vec4(v_normal, 1.0);
}
`

func testDesc() gpu.PassDescriptor {
	return gpu.PassDescriptor{
		Label:          "test",
		VertexSource:   testVert,
		FragmentSource: testFrag,
		Framebuffers:   2,
		VertexArrays:   3,
		Uniforms:       []string{"u_mvp", "u_size", "u_tint", "u_tex"},
		Attributes:     []string{"a_position", "a_normal"},
		Outputs:        []string{"o_color", "o_extra"},
	}
}

func TestRenderPass_ResolvesDeclaredNames(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)

	assert.Equal(t, 2, pass.FramebufferCount())
	assert.Equal(t, 3, pass.VertexArrayCount())
	assert.Equal(t, []string{"u_mvp", "u_size", "u_tex", "u_tint"}, pass.Uniforms())

	for _, name := range []string{"u_mvp", "u_size", "u_tint", "u_tex"} {
		_, ok := pass.Uniform(name)
		assert.True(t, ok, name)
	}
	loc, ok := pass.Attribute("a_normal")
	require.True(t, ok)
	assert.EqualValues(t, 1, loc)
	loc, ok = pass.Output("o_extra")
	require.True(t, ok)
	assert.EqualValues(t, 1, loc)

	// Shaders are released once linked.
	assert.Equal(t, 2, rec.Count("DeleteShader"))
}

func TestRenderPass_UnresolvedNameFails(t *testing.T) {
	cases := map[string]func(*gpu.PassDescriptor){
		"uniform":   func(d *gpu.PassDescriptor) { d.Uniforms = append(d.Uniforms, "u_missing") },
		"attribute": func(d *gpu.PassDescriptor) { d.Attributes = append(d.Attributes, "a_missing") },
		"output":    func(d *gpu.PassDescriptor) { d.Outputs = append(d.Outputs, "o_missing") },
	}
	for kind, mutate := range cases {
		t.Run(kind, func(t *testing.T) {
			rec := gputest.NewRecorder(64, 32)
			desc := testDesc()
			mutate(&desc)

			pass, err := gpu.NewRenderPass(rec, desc)
			require.Error(t, err)
			assert.Nil(t, pass)
			assert.ErrorIs(t, err, gpu.ErrUnresolvedName)
			assert.Contains(t, err.Error(), kind+" ")
			assert.Zero(t, rec.Live(), "failed construction must not leak objects")
		})
	}
}

func TestRenderPass_CompileFailureCarriesDiagnostic(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	desc := testDesc()
	desc.FragmentSource = "#version 410 core\n#error unsupported lighting model\nvoid main() {}\n"

	_, err := gpu.NewRenderPass(rec, desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrShaderCompile)
	assert.Contains(t, err.Error(), "unsupported lighting model")
	assert.Contains(t, err.Error(), "fragment stage")
	assert.Zero(t, rec.Live())
}

func TestRenderPass_LinkFailsOnUnknownVarying(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	desc := testDesc()
	desc.FeedbackVaryings = []string{"v_velocity"}

	_, err := gpu.NewRenderPass(rec, desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrProgramLink)
	assert.Contains(t, err.Error(), "v_velocity")
}

func TestRenderPass_ActivateBindsState(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)

	rec.Reset()
	pass.Activate(1, 2)
	pass.Activate(1, 2)

	binds := rec.Filter("UseProgram", "BindFramebuffer", "BindVertexArray")
	require.Len(t, binds, 6)
	for i := 0; i < 2; i++ {
		assert.Equal(t, pass.Program(), binds[3*i].Args[0])
		assert.Equal(t, pass.Framebuffer(1), binds[3*i+1].Args[1])
		assert.Equal(t, pass.VertexArray(2), binds[3*i+2].Args[0])
	}

	pass.Activate(gpu.Default, gpu.Default)
	last := rec.Calls[len(rec.Calls)-1]
	assert.Equal(t, "BindVertexArray", last.Name)
	assert.EqualValues(t, 0, last.Args[0])
	assert.EqualValues(t, 0, last.DrawFBO)
}

func TestRenderPass_IndexOutOfRangePanics(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)

	assert.Panics(t, func() { pass.Activate(2, 0) })
	assert.Panics(t, func() { pass.Activate(0, 3) })
}

func TestRenderPass_UniformSetters(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)
	tex := pass.AttachTexture(0, gpu.Texture0+4, gpu.RGBA8, gpu.ColorAttachment0)

	pass.Activate(0, 0)
	pass.SetFloat("u_size", 0.5)
	pass.SetVec3("u_tint", mgl32.Vec3{1, 0.5, 0.25})
	pass.SetMat4("u_mvp", mgl32.Ident4())
	pass.SetTexture("u_tex", tex)
	assert.Empty(t, rec.Hazards)

	v, ok := rec.UniformValue(pass.Program(), "u_size")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)
	v, _ = rec.UniformValue(pass.Program(), "u_tint")
	assert.Equal(t, [3]float32{1, 0.5, 0.25}, v)
	v, _ = rec.UniformValue(pass.Program(), "u_mvp")
	assert.Equal(t, [16]float32(mgl32.Ident4()), v)
	v, _ = rec.UniformValue(pass.Program(), "u_tex")
	assert.Equal(t, int32(4), v)

	assert.PanicsWithValue(t, `render pass "test": uniform "u_other" was not declared`, func() {
		pass.SetFloat("u_other", 1)
	})
}

func TestRenderPass_OutputTargets(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)

	pass.AttachTexture(0, gpu.Texture0, gpu.RGBA8, gpu.ColorAttachment0)
	pass.AttachTexture(0, gpu.Texture0+1, gpu.RGBA16F, gpu.ColorAttachment0+1)
	pass.AttachRenderbuffer(0, 0, gpu.Depth24Stencil8, gpu.DepthStencilAttachment)
	require.NoError(t, pass.SetOutputTargets(0, gpu.ColorAttachment0, gpu.ColorAttachment0+1))
	assert.Equal(t, []uint32{gpu.ColorAttachment0, gpu.ColorAttachment0 + 1}, rec.DrawBuffersOf(pass.Framebuffer(0)))

	assert.Error(t, pass.SetOutputTargets(0, gpu.ColorAttachment0))

	// Nothing attached to framebuffer 1.
	err = pass.SetOutputTargets(1, gpu.ColorAttachment0, gpu.ColorAttachment0+1)
	assert.ErrorIs(t, err, gpu.ErrFramebufferIncomplete)
}

func TestRenderPass_ResizeKeepsTextureHandles(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)

	tex := pass.AttachTexture(0, gpu.Texture0, gpu.RGBA8, gpu.ColorAttachment0)
	pass.AttachTexture(0, gpu.Texture0+1, gpu.RGBA8, gpu.ColorAttachment0+1)
	pass.AttachRenderbuffer(0, 0, gpu.Depth24Stencil8, gpu.DepthStencilAttachment)
	oldID := tex.ID

	pass.Resize(128, 96)
	assert.NotEqual(t, oldID, tex.ID)
	assert.EqualValues(t, 128, tex.Width)
	assert.EqualValues(t, 96, tex.Height)
	w, h, ok := rec.TextureSize(tex.ID)
	require.True(t, ok)
	assert.EqualValues(t, 128, w)
	assert.EqualValues(t, 96, h)
	_, _, ok = rec.TextureSize(oldID)
	assert.False(t, ok, "old texture must be deleted")

	require.NoError(t, pass.SetOutputTargets(0, gpu.ColorAttachment0, gpu.ColorAttachment0+1))
}

func TestRenderPass_ReleaseDeletesEverything(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)
	pass.AttachTexture(0, gpu.Texture0, gpu.RGBA8, gpu.ColorAttachment0)
	pass.AttachRenderbuffer(1, 4, gpu.Depth24Stencil8, gpu.DepthStencilAttachment)
	buf := pass.UploadBuffer([]float32{1, 2, 3}, gpu.StaticDraw)
	assert.Equal(t, 12, rec.BufferSize(buf.ID))
	require.NotZero(t, rec.Live())

	pass.Release()
	assert.Zero(t, rec.Live())
}

func TestRenderPass_VertexAttributeDivisor(t *testing.T) {
	rec := gputest.NewRecorder(64, 32)
	pass, err := gpu.NewRenderPass(rec, testDesc())
	require.NoError(t, err)

	mesh := pass.UploadBuffer(make([]float32, 9), gpu.StaticDraw)
	inst := pass.AllocateBuffer(36, gpu.StreamCopy)
	pass.BindVertexAttribute(1, mesh, "a_position", 3, 0, 0, false, 0)
	pass.BindVertexAttribute(1, inst, "a_normal", 3, 0, 0, false, 1)

	vao := pass.VertexArray(1)
	src, ok := rec.AttributeSource(vao, 0)
	require.True(t, ok)
	assert.Equal(t, mesh.ID, src)
	src, _ = rec.AttributeSource(vao, 1)
	assert.Equal(t, inst.ID, src)
	assert.EqualValues(t, 0, rec.AttributeDivisor(vao, 0))
	assert.EqualValues(t, 1, rec.AttributeDivisor(vao, 1))
	assert.Equal(t, 36, rec.BufferSize(inst.ID))
	assert.Empty(t, rec.Hazards)

	assert.Panics(t, func() { pass.BindVertexAttribute(0, mesh, "a_missing", 3, 0, 0, false, 0) })
}

func TestRequireFeatures(t *testing.T) {
	rec := gputest.NewRecorder(8, 8)
	assert.NoError(t, gpu.RequireFeatures(rec, gpu.FeatureColorBufferFloat, gpu.FeatureTransformFeedback))

	rec.Missing[gpu.FeatureColorBufferFloat] = true
	err := gpu.RequireFeatures(rec, gpu.FeatureTransformFeedback, gpu.FeatureColorBufferFloat)
	assert.ErrorIs(t, err, gpu.ErrMissingFeature)
	assert.Contains(t, err.Error(), "color-buffer-float")
}
