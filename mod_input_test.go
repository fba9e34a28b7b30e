package orbital

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_EdgeFlags(t *testing.T) {
	var input Input

	input.set(KeyR, true)
	assert.True(t, input.Pressed[KeyR])
	assert.True(t, input.JustPressed[KeyR])
	assert.False(t, input.JustReleased[KeyR])

	input.set(KeyR, true)
	assert.True(t, input.Pressed[KeyR])
	assert.False(t, input.JustPressed[KeyR], "held keys are pressed only once")

	input.set(KeyR, false)
	assert.False(t, input.Pressed[KeyR])
	assert.True(t, input.JustReleased[KeyR])

	input.set(KeyR, false)
	assert.False(t, input.JustReleased[KeyR])
}

func newInputApp() (*App, *Input, *FrameState) {
	input := &Input{WindowWidth: 800, WindowHeight: 600}
	state := NewFrameState(DefaultConfig().Camera)
	app := NewAppBuilder().Build()
	app.addResources(input, state)
	app.UseSystem(System(viewControlSystem).InStage(Update))
	return app, input, state
}

func TestViewControl_DragAndReset(t *testing.T) {
	app, input, state := newInputApp()
	initial := state.View

	input.MouseX, input.MouseY = 400, 300
	input.set(MouseButtonLeft, true)
	app.Step()
	assert.True(t, state.Dragging)

	input.MouseX = 480
	input.set(MouseButtonLeft, true)
	app.Step()
	assert.False(t, state.View.ApproxEqual(initial))

	input.set(MouseButtonLeft, false)
	app.Step()
	assert.False(t, state.Dragging)

	input.set(KeyR, true)
	app.Step()
	assert.Equal(t, initial, state.View)
}

func TestViewControl_HoverTracksPointer(t *testing.T) {
	app, input, state := newInputApp()
	initial := state.View

	input.MouseX, input.MouseY = 120, 40
	app.Step()
	assert.Equal(t, float32(120), state.Pointer.X())
	assert.Equal(t, float32(40), state.Pointer.Y())
	assert.Equal(t, initial, state.View)
}

func TestViewControl_EscapeExits(t *testing.T) {
	app, input, _ := newInputApp()
	input.set(KeyEscape, true)
	app.Step()
	assert.True(t, app.Exiting())
}
