package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraLooksAtOrigin(t *testing.T) {
	c := NewCameraState(30, 0.78, 1, 50)
	view := c.GetViewMatrix()
	origin := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	// origin sits straight ahead on -Z in view space
	assert.InDelta(t, 0, origin.X(), 1e-5)
	assert.InDelta(t, 0, origin.Y(), 1e-5)
	assert.InDelta(t, -30, origin.Z(), 1e-4)

	c.SetViewport(1600, 800)
	assert.Equal(t, float32(2), c.Aspect)
	c.SetViewport(0, 800)
	assert.Equal(t, float32(2), c.Aspect)
}

func TestOrbitCompute(t *testing.T) {
	o := NewOrbit()
	size := mgl32.Vec2{800, 600}

	_, ok := o.Compute(mgl32.Vec2{400, 300}, size)
	assert.False(t, ok, "first position only anchors the drag")

	q, ok := o.Compute(mgl32.Vec2{450, 300}, size)
	assert.True(t, ok)
	assert.InDelta(t, 1, q.Len(), 1e-5)
	// horizontal drag rotates about the vertical axis
	assert.InDelta(t, 0, q.V.X(), 1e-5)
	assert.NotZero(t, q.V.Y())

	_, ok = o.Compute(mgl32.Vec2{450, 300}, size)
	assert.False(t, ok, "no movement")

	o.Discard()
	_, ok = o.Compute(mgl32.Vec2{100, 100}, size)
	assert.False(t, ok)
}
