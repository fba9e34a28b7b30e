package orbital

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowState struct {
	// glfw
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

// createWindowState opens a window with a current OpenGL 4.1 core context. The default
// framebuffer carries no depth and no multisampling; all depth testing happens offscreen.
func createWindowState(windowWidth int, windowHeight int, windowTitle string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 0)
	glfw.WindowHint(glfw.StencilBits, 0)
	glfw.WindowHint(glfw.AlphaBits, 8)
	glfw.WindowHint(glfw.Samples, 0)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}, nil
}

// FramebufferSize is the drawable size in pixels, which differs from the window size on
// high density displays.
func (s *WindowState) FramebufferSize() (int, int) {
	return s.windowGlfw.GetFramebufferSize()
}

// OnFramebufferResize registers fn for framebuffer size changes.
func (s *WindowState) OnFramebufferResize(fn func(width, height int)) {
	s.windowGlfw.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		fn(width, height)
	})
}

func (s *WindowState) ShouldClose() bool { return s.windowGlfw.ShouldClose() }

func (s *WindowState) SwapBuffers() { s.windowGlfw.SwapBuffers() }

func (s *WindowState) Destroy() {
	s.windowGlfw.Destroy()
	glfw.Terminate()
}
