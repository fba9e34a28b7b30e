package orbital

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now float64 }

func (c *fakeClock) read() float64 { return c.now }

func newTimedApp(clock *fakeClock, maxDt float64) (*App, *FrameState) {
	state := NewFrameState(DefaultConfig().Camera)
	app := NewAppBuilder().
		UseModule(TimeModule{Clock: clock.read, MaxDt: maxDt}).
		Build()
	app.addResources(state)
	return app, state
}

func TestTimeModule_AdvancesFrameState(t *testing.T) {
	clock := &fakeClock{now: 10}
	app, state := newTimedApp(clock, 0)

	app.Step()
	assert.Zero(t, state.Dt, "the first frame has no delta")
	assert.Zero(t, state.Time)

	clock.now = 10.016
	app.Step()
	assert.InDelta(t, 0.016, state.Dt, 1e-6)
	assert.InDelta(t, 0.016, state.Time, 1e-9)

	clock.now = 10.05
	app.Step()
	tm, _ := Resource[Time](app)
	assert.InDelta(t, 0.034, tm.Dt, 1e-9)
	assert.InDelta(t, 0.05, tm.Elapsed, 1e-9)
	assert.Equal(t, 10.05, tm.Now)
}

func TestTimeModule_ClampsStalls(t *testing.T) {
	clock := &fakeClock{}
	app, state := newTimedApp(clock, 0.1)
	app.Step()

	clock.now = 5
	app.Step()
	assert.InDelta(t, 0.1, state.Dt, 1e-6)
	assert.InDelta(t, 5, state.Time, 1e-9, "elapsed time is not clamped")

	clock.now = 4
	app.Step()
	assert.Zero(t, state.Dt, "a clock going backwards yields no step")
}

func TestTimeModule_DefaultMaxDt(t *testing.T) {
	app, _ := newTimedApp(&fakeClock{}, 0)
	tm, ok := Resource[Time](app)
	assert.True(t, ok)
	assert.Equal(t, 0.25, tm.MaxDt)
}
