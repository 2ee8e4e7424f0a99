package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/reconcile"
	"github.com/alfredjeanlab/devsim/internal/store"
)

// mockStore is an in-memory Store. ReplaceGraph resolves edges the same way
// the Postgres store does and is all-or-nothing.
type mockStore struct {
	mu       sync.Mutex
	projects map[int64]*model.Project
	nodes    map[int64][]*model.Node
	edges    map[int64][]*model.Edge
	nextID   int64

	// replaceErr, when non-nil, is returned by ReplaceGraph after it has
	// built the new graph but before it commits.
	replaceErr   error
	replaceCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		projects: make(map[int64]*model.Project),
		nodes:    make(map[int64][]*model.Node),
		edges:    make(map[int64][]*model.Edge),
		nextID:   1,
	}
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockStore) CreateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = p
	return nil
}

func (m *mockStore) GetProject(_ context.Context, id int64) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (m *mockStore) ListProjects(_ context.Context) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Project
	for id := int64(1); id < m.nextID; id++ {
		if p, ok := m.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) GetGraph(_ context.Context, projectID int64) (*model.ProjectGraph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, store.ErrNotFound)
	}
	nodes := append([]*model.Node{}, m.nodes[projectID]...)
	edges := append([]*model.Edge{}, m.edges[projectID]...)
	return &model.ProjectGraph{
		Project: p,
		Nodes:   nodes,
		Edges:   edges,
		Counts:  model.GraphCounts{TotalNodes: len(nodes), TotalEdges: len(edges)},
	}, nil
}

func (m *mockStore) ReplaceGraph(_ context.Context, projectID int64, specs []model.NodeSpec, edgeSpecs []model.EdgeSpec) (*model.ReplaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	p, ok := m.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, store.ErrNotFound)
	}

	nextID := m.nextID
	inserted := make([]*model.Node, 0, len(specs))
	labels := make(map[int64]string, len(specs))
	for _, spec := range specs {
		n := spec.WithDefaults(projectID)
		n.ID = nextID
		nextID++
		inserted = append(inserted, n)
		labels[n.ID] = n.Label
	}

	refs := reconcile.Build(specs, inserted)
	res := &model.ReplaceResult{Project: p, Nodes: inserted, Edges: []*model.Edge{}}
	for _, spec := range edgeSpecs {
		src, tgt, ok := refs.Edge(spec)
		if !ok {
			res.Dropped++
			continue
		}
		sl, tl := labels[src], labels[tgt]
		res.Edges = append(res.Edges, &model.Edge{
			ID: nextID, ProjectID: projectID,
			SourceNodeID: src, TargetNodeID: tgt,
			SourceLabel: &sl, TargetLabel: &tl,
		})
		nextID++
	}

	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	m.nextID = nextID
	m.nodes[projectID] = inserted
	m.edges[projectID] = res.Edges
	p.UpdatedAt = time.Now()
	return res, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
