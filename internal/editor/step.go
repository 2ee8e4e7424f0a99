package editor

import (
	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/sim"
)

// maxQueuedJobs bounds each node's job queue; older jobs fall off.
const maxQueuedJobs = 10

// Transfer records one job moving along an edge during a step.
type Transfer struct {
	EdgeID string  `json:"edge_id"`
	Target string  `json:"target"`
	Job    sim.Job `json:"job"`
}

// Simulation drives the generators of a graph and delivers their jobs to
// downstream nodes.
type Simulation struct {
	graph      *Graph
	generators map[string]*sim.Generator
	order      []string
}

// NewSimulation starts one generator for every generator node in g.
func NewSimulation(g *Graph) *Simulation {
	s := &Simulation{graph: g, generators: make(map[string]*sim.Generator)}
	for _, n := range g.Nodes {
		if n.Kind != model.KindGenerator {
			continue
		}
		interval := n.Data.ProcessingTime
		if interval <= 0 {
			interval = model.DefaultProcessingTime
		}
		gen := sim.NewGenerator(n.Data.Label, interval)
		gen.Start()
		s.generators[n.ID] = gen
		s.order = append(s.order, n.ID)
	}
	return s
}

// Generator returns the generator driving the node with the given id.
func (s *Simulation) Generator(nodeID string) *sim.Generator {
	return s.generators[nodeID]
}

// Step fires one internal event on every generator and pushes each emitted
// job along the generator's outgoing edges. Edges that carried a job are
// marked animated. Generators are visited in graph order.
func (s *Simulation) Step() []Transfer {
	var transfers []Transfer
	for _, e := range s.graph.Edges {
		e.Kind = ""
	}
	for _, id := range s.order {
		job := s.generators[id].Internal()
		if job == nil {
			continue
		}
		for _, e := range s.graph.Edges {
			if e.Source != id {
				continue
			}
			target := s.graph.Node(e.Target)
			if target == nil {
				continue
			}
			target.Data.Jobs = enqueue(target.Data.Jobs, *job)
			e.Kind = EdgeKindAnimated
			transfers = append(transfers, Transfer{EdgeID: e.ID, Target: e.Target, Job: *job})
		}
	}
	return transfers
}

// Stop stops every generator.
func (s *Simulation) Stop() {
	for _, id := range s.order {
		s.generators[id].Stop()
	}
}

func enqueue(q []sim.Job, j sim.Job) []sim.Job {
	q = append(q, j)
	if len(q) > maxQueuedJobs {
		q = q[len(q)-maxQueuedJobs:]
	}
	return q
}
