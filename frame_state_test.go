package orbital

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSurfaceSize = mgl32.Vec2{800, 600}

func TestFrameState_ResizeKeepsLatest(t *testing.T) {
	s := NewFrameState(DefaultConfig().Camera)

	_, _, ok := s.TakeResize()
	assert.False(t, ok)

	s.QueueResize(100, 50)
	s.QueueResize(640, 480)
	w, h, ok := s.TakeResize()
	require.True(t, ok)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	_, _, ok = s.TakeResize()
	assert.False(t, ok, "a resize is consumed once")
}

func TestFrameState_ApplyViewportChangesAspect(t *testing.T) {
	s := NewFrameState(DefaultConfig().Camera)
	before := s.Proj

	s.ApplyViewport(1600, 400)
	assert.Equal(t, float32(4), s.Camera.Aspect)
	assert.NotEqual(t, before, s.Proj)

	s.ApplyViewport(0, 0)
	assert.Equal(t, float32(4), s.Camera.Aspect, "degenerate sizes are ignored")
}

func TestFrameState_DragRotatesView(t *testing.T) {
	s := NewFrameState(DefaultConfig().Camera)
	initial := s.View

	s.PointerDown(mgl32.Vec2{400, 300}, testSurfaceSize)
	assert.True(t, s.Dragging)
	assert.Equal(t, initial, s.View, "pressing alone does not rotate")

	require.True(t, s.PointerMove(mgl32.Vec2{450, 300}, testSurfaceSize))
	assert.False(t, s.View.ApproxEqual(initial))

	// The rotation is post-multiplied, so the translation column keeps the camera distance.
	assert.InDelta(t, initial.Col(3).Vec3().Len(), s.View.Col(3).Vec3().Len(), 1e-4)

	s.PointerUp()
	moved := s.View
	assert.False(t, s.PointerMove(mgl32.Vec2{500, 350}, testSurfaceSize))
	assert.Equal(t, moved, s.View)
	assert.Equal(t, mgl32.Vec2{500, 350}, s.Pointer)

	s.ResetView()
	assert.Equal(t, initial, s.View)
}

func TestFrameState_NewDragDiscardsAnchor(t *testing.T) {
	s := NewFrameState(DefaultConfig().Camera)
	s.PointerDown(mgl32.Vec2{100, 100}, testSurfaceSize)
	s.PointerMove(mgl32.Vec2{120, 100}, testSurfaceSize)
	s.PointerUp()
	view := s.View

	// A new press far away must not produce a jump from the old anchor.
	s.PointerDown(mgl32.Vec2{700, 500}, testSurfaceSize)
	assert.Equal(t, view, s.View)
	assert.False(t, s.PointerMove(mgl32.Vec2{700, 500}, testSurfaceSize))
}
