package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraState struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	FovY   float32 // radians
	Near   float32
	Far    float32
	Aspect float32
}

// NewCameraState places the eye on +X at distance, looking at the origin with Y up.
func NewCameraState(distance, fovY, near, far float32) *CameraState {
	return &CameraState{
		Eye:    mgl32.Vec3{distance, 0, 0},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   fovY,
		Near:   near,
		Far:    far,
		Aspect: 1,
	}
}

func (c *CameraState) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

func (c *CameraState) GetProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// Orbit is an arcball controller: consecutive pointer positions are projected onto a virtual
// sphere and the rotation between them is returned.
type Orbit struct {
	Speed float32

	last    mgl32.Vec3
	hasLast bool
}

func NewOrbit() *Orbit {
	return &Orbit{Speed: 1}
}

// Discard forgets the drag anchor so the next Compute starts a new drag.
func (o *Orbit) Discard() {
	o.hasLast = false
}

func arcballPoint(pos, size mgl32.Vec2) mgl32.Vec3 {
	x := 2*pos.X()/size.X() - 1
	y := 1 - 2*pos.Y()/size.Y()
	d := x*x + y*y
	if d <= 1 {
		return mgl32.Vec3{x, y, float32(math.Sqrt(float64(1 - d)))}
	}
	return mgl32.Vec3{x, y, 0}.Normalize()
}

// Compute returns the rotation from the previous pointer position to pos, both in window
// coordinates of a surface of the given size. ok is false when there is no previous position
// or the pointer did not move.
func (o *Orbit) Compute(pos, size mgl32.Vec2) (q mgl32.Quat, ok bool) {
	if size.X() <= 0 || size.Y() <= 0 {
		return mgl32.QuatIdent(), false
	}
	p := arcballPoint(pos, size)
	prev, had := o.last, o.hasLast
	o.last, o.hasLast = p, true
	if !had || prev.ApproxEqual(p) {
		return mgl32.QuatIdent(), false
	}

	q = mgl32.QuatBetweenVectors(prev, p)
	if o.Speed != 1 {
		axis := q.V
		if axis.Len() == 0 {
			return mgl32.QuatIdent(), false
		}
		angle := 2 * float32(math.Acos(float64(mgl32.Clamp(q.W, -1, 1))))
		q = mgl32.QuatRotate(angle*o.Speed, axis.Normalize())
	}
	return q, true
}
