// Package client provides a transport-agnostic interface for the devsim
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// DevsimClient is the interface CLI commands use to talk to the devsim
// server. It is implemented by HTTPClient.
type DevsimClient interface {
	// Projects
	ListProjects(ctx context.Context) ([]*model.Project, error)
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*model.Project, error)

	// Graph
	GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error)
	ReplaceGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error)

	// Chat
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Conversation(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	DeleteConversation(ctx context.Context, conversationID string) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateProjectRequest holds parameters for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ReplaceGraphRequest is the body of a graph save.
type ReplaceGraphRequest struct {
	Nodes []model.NodeSpec `json:"nodes"`
	Edges []model.EdgeSpec `json:"edges"`
}

// ReplaceGraphResponse is returned by a successful graph save.
type ReplaceGraphResponse struct {
	Message    string        `json:"message"`
	ProjectID  int64         `json:"project_id"`
	NodesCount int           `json:"nodes_count"`
	EdgesCount int           `json:"edges_count"`
	Nodes      []*model.Node `json:"nodes"`
	Edges      []*model.Edge `json:"edges"`
}

// ChatRequest holds one chat turn.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChatResponse is the model's answer plus the updated conversation.
type ChatResponse struct {
	Reply          string              `json:"reply"`
	ConversationID string              `json:"conversationId"`
	Conversation   []model.ChatMessage `json:"conversation"`
}

// ConversationResponse is returned by the conversation history endpoint.
type ConversationResponse struct {
	ConversationID string              `json:"conversationId"`
	Conversation   []model.ChatMessage `json:"conversation"`
}
