package orbital

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	KeyEscape int = iota
	KeyR
	KeyF12
	MouseButtonLeft
	keyCount
)

type InputModule struct{}

type Input struct {
	Pressed [keyCount]bool

	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY float64

	WindowWidth, WindowHeight int
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(viewControlSystem).
			InStage(Update),
	)
}

// set records the current state of key and derives its edge flags.
func (input *Input) set(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.set(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	input.set(MouseButtonLeft, s.windowGlfw.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press)

	input.MouseX, input.MouseY = s.windowGlfw.GetCursorPos()
	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
}

// viewControlSystem turns pointer drags into arcball rotations of the view and handles the
// view keys.
func viewControlSystem(input *Input, state *FrameState, cmd *Commands) {
	pos := mgl32.Vec2{float32(input.MouseX), float32(input.MouseY)}
	size := mgl32.Vec2{float32(input.WindowWidth), float32(input.WindowHeight)}

	switch {
	case input.JustPressed[MouseButtonLeft]:
		state.PointerDown(pos, size)
	case input.Pressed[MouseButtonLeft]:
		state.PointerMove(pos, size)
	case input.JustReleased[MouseButtonLeft]:
		state.PointerUp()
	default:
		state.Pointer = pos
	}

	if input.JustPressed[KeyR] {
		state.ResetView()
	}
	if input.JustPressed[KeyEscape] {
		cmd.Exit()
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeyEscape: glfw.KeyEscape,
	KeyR:      glfw.KeyR,
	KeyF12:    glfw.KeyF12,
}
