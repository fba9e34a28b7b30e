package orbital

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gekko3d/orbital/rt/gpu"
)

// Profiler keeps the CPU time of the last run of each named scope and a set of counters.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	// Interval between debug reports.
	Interval time.Duration

	now        func() time.Time
	lastReport time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
		Interval:   time.Second,
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Reset zeroes the timings but keeps the scope order.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// StageHooks times every pipeline stage under its stage name.
func (p *Profiler) StageHooks() gpu.Hooks {
	return gpu.Hooks{
		BeginStage: func(s gpu.Stage) { p.BeginScope(s.String()) },
		EndStage:   func(s gpu.Stage) { p.EndScope(s.String()) },
	}
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}

// due reports whether a report is owed and, if so, restarts the interval.
func (p *Profiler) due() bool {
	now := p.now()
	if p.lastReport.IsZero() {
		p.lastReport = now
		return false
	}
	if now.Sub(p.lastReport) < p.Interval {
		return false
	}
	p.lastReport = now
	return true
}

func profilerReportSystem(p *Profiler, cmd *Commands) {
	log := cmd.Logger()
	if !log.DebugEnabled() || !p.due() {
		return
	}
	log.Debugf("profile:\n%s", p.GetStatsString())
}
