package orbital

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/orbital/rt/gpu"
)

type steppingClock struct {
	t    time.Time
	step time.Duration
}

func (c *steppingClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestProfiler_StageHooks(t *testing.T) {
	p := NewProfiler()
	clock := &steppingClock{t: time.Unix(0, 0), step: 2 * time.Millisecond}
	p.now = clock.now

	hooks := p.StageHooks()
	for _, s := range gpu.Stages {
		hooks.BeginStage(s)
		hooks.EndStage(s)
	}
	hooks.BeginStage(gpu.StageTransport)
	hooks.EndStage(gpu.StageTransport)

	assert.Equal(t, []string{"transport", "geometry", "occlusion", "composite"}, p.Order)
	for _, name := range p.Order {
		assert.Equal(t, 2*time.Millisecond, p.Scopes[name])
	}

	p.SetCount("particles", 100)
	stats := p.GetStatsString()
	assert.Contains(t, stats, "transport      : 2.00 ms")
	assert.Contains(t, stats, "particles      : 100")

	p.Reset()
	assert.Zero(t, p.Scopes["geometry"])
	assert.Len(t, p.Order, 4)
}

func TestProfiler_EndWithoutBeginIsIgnored(t *testing.T) {
	p := NewProfiler()
	p.EndScope("nothing")
	assert.Empty(t, p.Scopes)
}

func TestProfilerReport_OncePerInterval(t *testing.T) {
	var out bytes.Buffer
	app := NewAppBuilder().Build()
	app.addResources(NewWriterLogger("", true, &out, &out))

	p := NewProfiler()
	clock := &steppingClock{t: time.Unix(0, 0), step: 400 * time.Millisecond}
	p.now = clock.now
	p.SetCount("particles", 7)
	app.addResources(p)
	app.UseSystem(System(profilerReportSystem).InStage(PostRender))

	for range 8 {
		app.Step()
	}
	// The first frame starts the interval; reports follow on frames four and seven.
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("DEBUG: profile:")))
}

func TestProfilerReport_SilentWithoutDebug(t *testing.T) {
	var out bytes.Buffer
	app := NewAppBuilder().Build()
	app.addResources(NewWriterLogger("", false, &out, &out))
	p := NewProfiler()
	p.Interval = 0
	app.addResources(p)
	app.UseSystem(System(profilerReportSystem).InStage(PostRender))

	for range 3 {
		app.Step()
	}
	assert.Empty(t, out.String())
}
