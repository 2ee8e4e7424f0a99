package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanProject scans a single row into a model.Project.
// The row must contain columns in the order defined by projectColumns.
func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var description sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = description.String
	return &p, nil
}

// scanProjects scans multiple rows into a slice of model.Project pointers.
func scanProjects(rows *sql.Rows) ([]*model.Project, error) {
	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// scanNode scans a single row into a model.Node.
func scanNode(row scannable) (*model.Node, error) {
	var n model.Node
	var kind string
	if err := row.Scan(&n.ID, &n.ProjectID, &n.Label, &n.ProcessingTime, &kind); err != nil {
		return nil, err
	}
	n.Kind = model.NodeKind(kind)
	return &n, nil
}

// scanNodes scans multiple rows into a slice of model.Node pointers.
func scanNodes(rows *sql.Rows) ([]*model.Node, error) {
	nodes := []*model.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// scanEdge scans an edge row joined with its endpoint labels. The labels
// come from a LEFT JOIN and are NULL when an endpoint is missing.
func scanEdge(row scannable) (*model.Edge, error) {
	var e model.Edge
	var sourceLabel, targetLabel sql.NullString
	if err := row.Scan(&e.ID, &e.ProjectID, &e.SourceNodeID, &e.TargetNodeID, &sourceLabel, &targetLabel); err != nil {
		return nil, err
	}
	e.SourceLabel = nullStringPtr(sourceLabel)
	e.TargetLabel = nullStringPtr(targetLabel)
	return &e, nil
}

// scanEdges scans multiple rows into a slice of model.Edge pointers.
func scanEdges(rows *sql.Rows) ([]*model.Edge, error) {
	edges := []*model.Edge{}
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// nullStringPtr converts a sql.NullString to a *string; NULL is nil.
func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
