package orbital

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/orbital/rt/core"
	"github.com/gekko3d/orbital/rt/gpu"
)

// FrameState is the application state shared by the frame loop and the window event
// handlers. Handlers receive it by pointer; it is only touched from the main thread.
type FrameState struct {
	gpu.FrameState

	Camera *core.CameraState
	Orbit  *core.Orbit

	// Pointer is the last cursor position in window coordinates.
	Pointer  mgl32.Vec2
	Dragging bool

	resizeW, resizeH int
	resizePending    bool
}

func NewFrameState(cfg CameraConfig) *FrameState {
	cam := core.NewCameraState(cfg.Distance, cfg.Fov, cfg.Near, cfg.Far)
	orbit := core.NewOrbit()
	if cfg.OrbitSpeed > 0 {
		orbit.Speed = cfg.OrbitSpeed
	}
	s := &FrameState{Camera: cam, Orbit: orbit}
	s.ResetView()
	return s
}

// ResetView restores the camera's initial view and projection.
func (s *FrameState) ResetView() {
	s.View = s.Camera.GetViewMatrix()
	s.Proj = s.Camera.GetProjectionMatrix()
}

// QueueResize records a framebuffer size change to apply before the next frame. Only the
// latest size is kept.
func (s *FrameState) QueueResize(width, height int) {
	s.resizeW, s.resizeH = width, height
	s.resizePending = true
}

// TakeResize returns and clears the pending resize.
func (s *FrameState) TakeResize() (width, height int, ok bool) {
	if !s.resizePending {
		return 0, 0, false
	}
	s.resizePending = false
	return s.resizeW, s.resizeH, true
}

// ApplyViewport updates the projection aspect ratio for a surface of the given size.
func (s *FrameState) ApplyViewport(width, height int) {
	s.Camera.SetViewport(width, height)
	s.Proj = s.Camera.GetProjectionMatrix()
}

// PointerDown starts a drag at pos, discarding any previous anchor.
func (s *FrameState) PointerDown(pos, size mgl32.Vec2) {
	s.Pointer = pos
	s.Dragging = true
	s.Orbit.Discard()
	s.Orbit.Compute(pos, size)
}

// PointerMove rotates the view while dragging. It reports whether the view changed.
func (s *FrameState) PointerMove(pos, size mgl32.Vec2) bool {
	s.Pointer = pos
	if !s.Dragging {
		return false
	}
	q, ok := s.Orbit.Compute(pos, size)
	if !ok {
		return false
	}
	s.View = s.View.Mul4(q.Mat4())
	return true
}

func (s *FrameState) PointerUp() {
	s.Dragging = false
}
