package orbital

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
}

type resourceModule struct{}

func (resourceModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewMockResource1("from module"))
}

func TestAppBuilder_DefaultStages(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.Equal(t, defaultStages(), app.Stages())
	assert.NotEqual(t, uuid.Nil, app.RunID)
	for _, s := range app.Stages() {
		assert.Contains(t, app.systems, s.Name)
	}
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	builder.UseModule(&MockModule{})

	if len(builder.modules) != 1 {
		t.Errorf("Expected modules to contain 1 module, got %v", len(builder.modules))
	}
}

func TestAppBuilder_Build_WithMultipleModules(t *testing.T) {
	module1 := &MockModule{}
	module2 := &MockModule{}
	NewAppBuilder().UseModule(module1, module2).UseModule(resourceModule{}).Build()

	if !module1.installed || !module2.installed {
		t.Errorf("Expected Install to be called on every module")
	}
}

func TestAppBuilder_ModuleResources(t *testing.T) {
	app := NewAppBuilder().UseModule(resourceModule{}).Build()

	r, ok := Resource[MockResource1](app)
	assert.True(t, ok)
	assert.Equal(t, "from module", r.name)
}

func TestAppBuilder_WithRunID(t *testing.T) {
	id := uuid.MustParse("4b1d3c2e-0000-4000-8000-000000000001")
	app := NewAppBuilder().WithRunID(id).Build()
	assert.Equal(t, id, app.RunID)
}
