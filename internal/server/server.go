package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/alfredjeanlab/devsim/internal/chat"
	"github.com/alfredjeanlab/devsim/internal/events"
	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/store"
)

// GraphServer implements the devsim API on top of a Store. Transport
// layers (HTTP, gRPC) call into it.
type GraphServer struct {
	store     store.Store
	publisher events.Publisher
	chat      *chat.Service
	metrics   *Metrics
	health    *health.Server
	logger    *slog.Logger
	onSave    func(projectID int64)
}

// Option configures a GraphServer.
type Option func(*GraphServer)

// WithChat enables the chat endpoints. Without it they answer 503.
func WithChat(svc *chat.Service) Option {
	return func(s *GraphServer) { s.chat = svc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *GraphServer) { s.logger = l }
}

// WithSaveHook registers fn to run after every successful save.
func WithSaveHook(fn func(projectID int64)) Option {
	return func(s *GraphServer) { s.onSave = fn }
}

// NewGraphServer returns a new GraphServer backed by the given store and
// publisher. The store is assumed connected, so health reports SERVING.
func NewGraphServer(s store.Store, p events.Publisher, opts ...Option) *GraphServer {
	gs := &GraphServer{
		store:     s,
		publisher: p,
		metrics:   NewMetrics(),
		health:    health.NewServer(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(gs)
	}
	gs.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return gs
}

// Shutdown marks the server NOT_SERVING for health checkers.
func (s *GraphServer) Shutdown() {
	s.health.Shutdown()
}

// Metrics returns the server's Prometheus collectors.
func (s *GraphServer) Metrics() *Metrics { return s.metrics }

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// publish emits an event. Failures are logged but do not block the caller.
func (s *GraphServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// CreateProject creates an empty project and publishes a ProjectCreated event.
func (s *GraphServer) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, inputError("name is required")
	}
	p := &model.Project{Name: name, Description: description}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project_id", p.ID, "name", p.Name)
	s.publish(ctx, events.TopicProjectCreated, events.ProjectCreated{Project: p})
	return p, nil
}

func (s *GraphServer) ListProjects(ctx context.Context) ([]*model.Project, error) {
	return s.store.ListProjects(ctx)
}

// GetGraph returns the project and its persisted graph.
func (s *GraphServer) GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error) {
	return s.store.GetGraph(ctx, projectID)
}

// SaveGraph validates the node specs and replaces the project's graph.
// Validation failures are returned as inputError without touching the store.
func (s *GraphServer) SaveGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error) {
	if err := model.ValidateNodeSpecs(nodes); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return nil, inputError(ve.Error())
		}
		return nil, err
	}

	res, err := s.store.ReplaceGraph(ctx, projectID, nodes, edges)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.metrics.SaveFailures.Inc()
		}
		return nil, err
	}

	s.metrics.Saves.Inc()
	s.metrics.DroppedEdges.Add(float64(res.Dropped))
	s.logger.Info("project saved",
		"project_id", projectID,
		"nodes", len(res.Nodes),
		"edges", len(res.Edges),
		"dropped", res.Dropped,
	)
	s.publish(ctx, events.TopicProjectSaved, events.ProjectSaved{
		ProjectID:    projectID,
		NodesCount:   len(res.Nodes),
		EdgesCount:   len(res.Edges),
		DroppedEdges: res.Dropped,
	})
	if s.onSave != nil {
		s.onSave(projectID)
	}
	return res, nil
}
