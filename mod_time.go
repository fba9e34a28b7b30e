package orbital

import (
	"time"
)

// Clock returns seconds since an arbitrary origin.
type Clock func() float64

type Time struct {
	Now     float64
	Elapsed float64
	Dt      float64
	// MaxDt caps a single step so a stalled frame does not jump the particles.
	MaxDt float64

	clock Clock
	start float64
	first bool
}

type TimeModule struct {
	// Clock defaults to the monotonic wall clock.
	Clock Clock
	MaxDt float64
}

func wallClock() Clock {
	origin := time.Now()
	return func() float64 { return time.Since(origin).Seconds() }
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	clock := mod.Clock
	if clock == nil {
		clock = wallClock()
	}
	maxDt := mod.MaxDt
	if maxDt <= 0 {
		maxDt = 0.25
	}
	cmd.AddResources(&Time{clock: clock, MaxDt: maxDt, first: true})
	app.UseSystem(
		System(timeSystem).
			InStage(PreUpdate),
	)
}

func timeSystem(t *Time, state *FrameState) {
	now := t.clock()
	if t.first {
		t.first = false
		t.start = now
		t.Now = now
	}

	t.Dt = now - t.Now
	if t.Dt < 0 {
		t.Dt = 0
	}
	if t.Dt > t.MaxDt {
		t.Dt = t.MaxDt
	}
	t.Now = now
	t.Elapsed = now - t.start

	state.Time = t.Elapsed
	state.Dt = float32(t.Dt)
}
