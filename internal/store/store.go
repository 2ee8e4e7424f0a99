package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// ErrNotFound is returned when the requested project does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for project graphs.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context) ([]*model.Project, error)

	// Graph
	GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error)

	// ReplaceGraph deletes the project's nodes and edges and inserts the
	// given graph in their place. It is all-or-nothing: on error the prior
	// graph is left untouched. Edges whose endpoints cannot be resolved
	// against the inserted nodes are dropped, not reported as errors.
	ReplaceGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
