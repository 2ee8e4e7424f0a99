package model

import "time"

// Project is the top-level container that owns a node/edge graph.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GraphCounts summarises the size of a project graph.
type GraphCounts struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
}

// ProjectGraph is a project together with its full persisted graph.
// Nodes and edges are ordered by identifier ascending.
type ProjectGraph struct {
	Project *Project    `json:"project"`
	Nodes   []*Node     `json:"nodes"`
	Edges   []*Edge     `json:"edges"`
	Counts  GraphCounts `json:"counts"`
}

// ReplaceResult is returned by a successful replace-all save.
type ReplaceResult struct {
	Project *Project `json:"-"`
	Nodes   []*Node  `json:"nodes"`
	Edges   []*Edge  `json:"edges"`

	// Dropped is the number of edge specs that could not be resolved.
	Dropped int `json:"-"`
}
