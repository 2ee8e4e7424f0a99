package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/store"
)

// saveGraphInput is the PUT /project/{projectId} body. Pointers distinguish
// an absent field from an empty list.
type saveGraphInput struct {
	Nodes *[]model.NodeSpec `json:"nodes"`
	Edges *[]model.EdgeSpec `json:"edges"`
}

type saveGraphResponse struct {
	Message    string        `json:"message"`
	ProjectID  int64         `json:"project_id"`
	NodesCount int           `json:"nodes_count"`
	EdgesCount int           `json:"edges_count"`
	Nodes      []*model.Node `json:"nodes"`
	Edges      []*model.Edge `json:"edges"`
}

type createProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func projectIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("projectId"), 10, 64)
	return id, err == nil
}

// handleGetProject handles GET /project/{projectId}.
func (s *GraphServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	pg, err := s.GetGraph(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load project", "project_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

// handleSaveProject handles PUT /project/{projectId}.
func (s *GraphServer) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var in saveGraphInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Nodes == nil || in.Edges == nil {
		writeError(w, http.StatusBadRequest, "nodes and edges are required")
		return
	}

	res, err := s.SaveGraph(r.Context(), id, *in.Nodes, *in.Edges)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Project not found")
		default:
			s.logger.Error("failed to save project", "project_id", id, "error", err)
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to save project", err)
		}
		return
	}

	nodes, edges := res.Nodes, res.Edges
	if nodes == nil {
		nodes = []*model.Node{}
	}
	if edges == nil {
		edges = []*model.Edge{}
	}
	writeJSON(w, http.StatusOK, saveGraphResponse{
		Message:    "Project saved successfully",
		ProjectID:  id,
		NodesCount: len(nodes),
		EdgesCount: len(edges),
		Nodes:      nodes,
		Edges:      edges,
	})
}

// handleListProjects handles GET /projects.
func (s *GraphServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.ListProjects(r.Context())
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// handleCreateProject handles POST /projects.
func (s *GraphServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in createProjectInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.CreateProject(r.Context(), in.Name, in.Description)
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
		} else {
			s.logger.Error("failed to create project", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create project")
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
