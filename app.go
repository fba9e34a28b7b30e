package orbital

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/google/uuid"
)

type systemFn any

type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	RunID uuid.UUID

	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any

	started bool
	exiting bool
	frame   uint64
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Frame is the number of completed iterations.
func (app *App) Frame() uint64 { return app.frame }

// Exit stops Run after the current iteration.
func (app *App) Exit() { app.exiting = true }

func (app *App) Exiting() bool { return app.exiting }

// Run executes the Startup stage once, then every per-frame stage until a system calls
// Exit, then the Shutdown stage.
func (app *App) Run() {
	app.Logger().Infof("run %s starting", app.RunID)
	for !app.exiting {
		app.Step()
	}
	app.Close()
	app.Logger().Infof("run %s finished after %d frames", app.RunID, app.frame)
}

// Step runs Startup on first use, then one iteration of every per-frame stage.
func (app *App) Step() {
	if !app.started {
		app.started = true
		app.callStages(PhaseStartup)
		if app.exiting {
			return
		}
	}
	app.callStages(PhaseFrame)
	app.frame++
}

// Close runs the shutdown stages. Run calls it after the loop ends.
func (app *App) Close() {
	app.callStages(PhaseShutdown)
}

func (app *App) callStages(phase Phase) {
	for _, stage := range app.stages {
		if stage.Phase != phase {
			continue
		}
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T registered on app.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

var (
	typeOfCommands = reflect.TypeOf(Commands{})
	typeOfApp      = reflect.TypeOf(App{})
)

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("system %s: argument %d (%s) must be a pointer",
				runtime.FuncForPC(systemValue.Pointer()).Name(), i, argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if underlyingType == typeOfApp {
			args[i] = reflect.ValueOf(app)
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}
	systemValue.Call(args)
}
