package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/store"
)

// mockSource is an in-memory Source for tests.
type mockSource struct {
	mu       sync.Mutex
	projects map[int64]*model.ProjectGraph
	listErr  error
}

func newMockSource() *mockSource {
	return &mockSource{projects: make(map[int64]*model.ProjectGraph)}
}

func (m *mockSource) add(id int64, name string, nodes []*model.Node, edges []*model.Edge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[id] = &model.ProjectGraph{
		Project: &model.Project{ID: id, Name: name},
		Nodes:   nodes,
		Edges:   edges,
		Counts:  model.GraphCounts{TotalNodes: len(nodes), TotalEdges: len(edges)},
	}
}

func (m *mockSource) ListProjects(_ context.Context) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Project, 0, len(m.projects))
	for _, pg := range m.projects {
		out = append(out, pg.Project)
	}
	return out, nil
}

func (m *mockSource) GetGraph(_ context.Context, projectID int64) (*model.ProjectGraph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg, ok := m.projects[projectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return pg, nil
}

var errBoom = errors.New("boom")
