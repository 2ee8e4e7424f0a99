package events

import (
	"context"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// Event topic constants
const (
	TopicProjectCreated = "devsim.project.created"
	TopicProjectSaved   = "devsim.project.saved"

	// TopicAll matches every devsim event.
	TopicAll = "devsim.>"
)

// Event types

type ProjectCreated struct {
	Project *model.Project `json:"project"`
}

// ProjectSaved is emitted after a replace-all save commits.
type ProjectSaved struct {
	ProjectID    int64 `json:"project_id"`
	NodesCount   int   `json:"nodes_count"`
	EdgesCount   int   `json:"edges_count"`
	DroppedEdges int   `json:"dropped_edges"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
