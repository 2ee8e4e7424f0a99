package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// GraphClient is the subset of the graph API the synchronizer needs. It is
// satisfied by both the HTTP client and a store.
type GraphClient interface {
	GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error)
	ReplaceGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error)
}

// LoadResult is the outcome of Synchronizer.Load.
type LoadResult struct {
	Graph *Graph
	// Degraded is set when the project could not be fetched and Graph is
	// the fallback example. Err holds the cause.
	Degraded bool
	Err      error
}

// Synchronizer moves editor state to and from the graph store.
type Synchronizer struct {
	client GraphClient
	logger *slog.Logger
}

// NewSynchronizer returns a synchronizer backed by client. A nil logger
// uses slog.Default().
func NewSynchronizer(client GraphClient, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{client: client, logger: logger}
}

// Load fetches the project graph. Any failure is logged and answered with
// the fallback graph so the editor always has something to show.
func (s *Synchronizer) Load(ctx context.Context, projectID int64) *LoadResult {
	pg, err := s.client.GetGraph(ctx, projectID)
	if err != nil {
		s.logger.Warn("loading project graph failed, using fallback",
			"project_id", projectID, "err", err)
		return &LoadResult{Graph: Fallback(), Degraded: true, Err: err}
	}
	g := FromStore(pg)
	s.logger.Debug("loaded project graph",
		"project_id", projectID, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return &LoadResult{Graph: g}
}

// Save replaces the stored graph with g and returns the reconciled editor
// state: the i-th returned node takes over the i-th editor node's position
// and job queue under its new persisted id, and edges are rebuilt from the
// stored edges. On error g is returned unchanged alongside the error.
func (s *Synchronizer) Save(ctx context.Context, projectID int64, g *Graph) (*Graph, error) {
	nodes, edges := ToWire(g)
	res, err := s.client.ReplaceGraph(ctx, projectID, nodes, edges)
	if err != nil {
		return g, fmt.Errorf("saving project %d: %w", projectID, err)
	}
	if len(res.Nodes) != len(g.Nodes) {
		return g, fmt.Errorf("saving project %d: sent %d nodes, store returned %d",
			projectID, len(g.Nodes), len(res.Nodes))
	}

	out := &Graph{Nodes: make([]*Node, len(res.Nodes))}
	saved := make(map[int64]bool, len(res.Nodes))
	for i, n := range res.Nodes {
		prev := g.Nodes[i]
		node := fromModelNode(n, prev.Position)
		node.Data.Jobs = prev.Data.Jobs
		out.Nodes[i] = node
		saved[n.ID] = true
	}
	out.Edges = edgesFromStore(res.Edges, saved)

	if dropped := len(edges) - len(out.Edges); dropped > 0 {
		s.logger.Warn("edges dropped during save",
			"project_id", projectID, "dropped", dropped)
	}
	s.logger.Info("saved project graph",
		"project_id", projectID, "nodes", len(out.Nodes), "edges", len(out.Edges))
	return out, nil
}
