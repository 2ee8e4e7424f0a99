// Package sim implements the generator phase machine used to drive jobs
// through a model graph.
package sim

import (
	"fmt"
	"math"
)

// Phase is the operational phase of a generator.
type Phase string

const (
	PhasePassive   Phase = "passive"
	PhaseActive    Phase = "active"
	PhaseFinishing Phase = "finishing"
)

// Event is an input that may move a generator between phases.
type Event string

const (
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventInternal Event = "internal"
)

type transitionKey struct {
	from  Phase
	event Event
}

// transitions lists every (phase, event) pair that changes state. Pairs not
// listed leave the phase unchanged.
var transitions = map[transitionKey]Phase{
	{PhasePassive, EventStart}:      PhaseActive,
	{PhaseActive, EventStop}:        PhaseFinishing,
	{PhaseActive, EventInternal}:    PhaseActive,
	{PhaseFinishing, EventInternal}: PhasePassive,
}

// Transition returns the phase reached from p on event e and whether the
// event had any effect.
func Transition(p Phase, e Event) (Phase, bool) {
	next, ok := transitions[transitionKey{p, e}]
	if !ok {
		return p, false
	}
	return next, true
}

// Job is one entity emitted by a generator.
type Job struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// Generator emits a job every Interval time units while active.
type Generator struct {
	Name     string
	Interval float64

	phase Phase
	count int
	sigma float64
}

// NewGenerator returns an initialized generator in the passive phase.
func NewGenerator(name string, interval float64) *Generator {
	g := &Generator{Name: name, Interval: interval}
	g.Initialize()
	return g
}

// Initialize resets the generator to passive with no jobs emitted.
func (g *Generator) Initialize() {
	g.phase = PhasePassive
	g.sigma = math.Inf(1)
	g.count = 0
}

func (g *Generator) Phase() Phase { return g.phase }

// Count is the number of jobs emitted since the last Initialize.
func (g *Generator) Count() int { return g.count }

// Sigma is the time remaining until the next internal event.
func (g *Generator) Sigma() float64 { return g.sigma }

// Start activates a passive generator. It reports whether the phase changed.
func (g *Generator) Start() bool {
	next, ok := Transition(g.phase, EventStart)
	if ok {
		g.phase, g.sigma = next, g.Interval
	}
	return ok
}

// Stop moves an active generator to finishing; its next internal event
// passivates it without emitting.
func (g *Generator) Stop() bool {
	next, ok := Transition(g.phase, EventStop)
	if ok {
		g.phase, g.sigma = next, 0
	}
	return ok
}

// Internal processes an internal event. An active generator emits a job and
// stays active; a finishing generator becomes passive. The returned job is
// nil when nothing was emitted.
func (g *Generator) Internal() *Job {
	prev := g.phase
	next, ok := Transition(g.phase, EventInternal)
	if !ok {
		return nil
	}
	g.phase = next
	if prev != PhaseActive {
		g.sigma = math.Inf(1)
		return nil
	}
	g.count++
	g.sigma = g.Interval
	return &Job{ID: fmt.Sprintf("job%d", g.count), Source: g.Name}
}

// Run starts g, processes n internal events and returns the emitted jobs.
// The generator is left active.
func (g *Generator) Run(n int) []Job {
	g.Start()
	jobs := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		if j := g.Internal(); j != nil {
			jobs = append(jobs, *j)
		}
	}
	return jobs
}
