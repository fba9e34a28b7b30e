package orbital

import (
	"reflect"

	"github.com/google/uuid"
)

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	app := &App{
		RunID:     uuid.New(),
		stages:    defaultStages(),
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
	}
	for _, s := range app.stages {
		app.systems[s.Name] = make([]systemFn, 0)
	}
	return &AppBuilder{app: app}
}

// WithRunID replaces the generated run id, for reproducible capture names.
func (b *AppBuilder) WithRunID(id uuid.UUID) *AppBuilder {
	b.app.RunID = id
	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	commands := &Commands{app: app}

	for _, module := range b.modules {
		module.Install(app, commands)
	}

	return app
}
