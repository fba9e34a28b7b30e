package orbital

import (
	"fmt"
	"slices"
)

// Phase decides when a stage runs: once before the first frame, every frame, or once after
// Exit.
type Phase int

const (
	PhaseFrame Phase = iota
	PhaseStartup
	PhaseShutdown
)

type Stage struct {
	Name  string
	Phase Phase
}

var (
	Startup    = Stage{Name: "Startup", Phase: PhaseStartup}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Shutdown   = Stage{Name: "Shutdown", Phase: PhaseShutdown}
	// Teardown runs after Shutdown; the window and its GL context are destroyed here.
	Teardown = Stage{Name: "Teardown", Phase: PhaseShutdown}
)

func defaultStages() []Stage {
	return []Stage{Startup, PreUpdate, Update, Render, PostRender, Shutdown, Teardown}
}

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: s,
	}
}

func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  system,
		inStage: Update,
	}
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageBefore,
		target:   s,
	}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageAfter,
		target:   s,
	}
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	stageIdx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v doesn't exist", where.target.Name))
	}
	if slices.ContainsFunc(app.stages, func(s Stage) bool { return s.Name == stage.Name }) {
		panic(fmt.Sprintf("Stage %v already exists", stage.Name))
	}

	insertAt := stageIdx
	if stageAfter == where.position {
		insertAt = stageIdx + 1
	}

	app.stages = slices.Insert(app.stages, insertAt, stage)
	app.systems[stage.Name] = make([]systemFn, 0)

	return app
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if _, ok := app.systems[system.inStage.Name]; !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}
	app.systems[system.inStage.Name] = append(app.systems[system.inStage.Name], system.system)
	return app
}

func (app *App) Stages() []Stage {
	return slices.Clone(app.stages)
}
