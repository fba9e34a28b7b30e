package orbital

import (
	"fmt"
	"reflect"
)

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is created
// and made available as a resource for the renderer and input modules.
// Install is idempotent: if a WindowState resource already exists, it is reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(cfg WindowConfig) *PlatformWindowModule {
	width, height, title := cfg.Width, cfg.Height, cfg.Title
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Orbital"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

// Install provides the WindowState resource if missing.
func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if _, ok := app.resources[t]; ok {
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title)
	if err != nil {
		app.Logger().Errorf("window: %v", err)
		panic(fmt.Sprintf("window: %v", err))
	}
	app.addResources(ws)
	app.UseSystem(System(windowCloseSystem).InStage(PostRender))
	app.UseSystem(System(windowDestroySystem).InStage(Teardown))
}

func windowCloseSystem(ws *WindowState, cmd *Commands) {
	if ws.ShouldClose() {
		cmd.Exit()
	}
}

func windowDestroySystem(ws *WindowState) {
	ws.Destroy()
}
