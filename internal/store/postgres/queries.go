package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/reconcile"
	"github.com/alfredjeanlab/devsim/internal/store"
)

// projectColumns is the column list used for SELECT statements on the projects table.
const projectColumns = `id, name, description, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateProject(ctx context.Context, db executor, p *model.Project) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO projects (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		p.Name,
		p.Description,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func queryGetProject(ctx context.Context, db executor, id int64) (*model.Project, error) {
	row := db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func queryListProjects(ctx context.Context, db executor) ([]*model.Project, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	return projects, nil
}

func queryGetNodes(ctx context.Context, db executor, projectID int64) ([]*model.Node, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, project_id, label, processing_time, node_type
		FROM nodes
		WHERE project_id = $1
		ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("get nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// queryGetEdges left-joins endpoint labels so an edge whose endpoint was
// removed out of band still comes back, with a NULL label.
func queryGetEdges(ctx context.Context, db executor, projectID int64) ([]*model.Edge, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.id, e.project_id, e.source_node_id, e.target_node_id,
		       n1.label AS source_label, n2.label AS target_label
		FROM edges e
		LEFT JOIN nodes n1 ON e.source_node_id = n1.id
		LEFT JOIN nodes n2 ON e.target_node_id = n2.id
		WHERE e.project_id = $1
		ORDER BY e.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func queryGetGraph(ctx context.Context, db executor, projectID int64) (*model.ProjectGraph, error) {
	project, err := queryGetProject(ctx, db, projectID)
	if err != nil {
		return nil, err
	}

	nodes, err := queryGetNodes(ctx, db, projectID)
	if err != nil {
		return nil, err
	}

	edges, err := queryGetEdges(ctx, db, projectID)
	if err != nil {
		return nil, err
	}

	return &model.ProjectGraph{
		Project: project,
		Nodes:   nodes,
		Edges:   edges,
		Counts: model.GraphCounts{
			TotalNodes: len(nodes),
			TotalEdges: len(edges),
		},
	}, nil
}

// lockProject checks that the project exists and takes a row lock on it so
// concurrent saves of the same project run one after the other.
func lockProject(ctx context.Context, db executor, projectID int64) error {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("project %d: %w", projectID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock project: %w", err)
	}
	return nil
}

// queryReplaceGraph implements the replace-all save. It must run inside a
// transaction: it deletes before it inserts and relies on rollback to
// restore the prior graph when any later step fails.
func queryReplaceGraph(ctx context.Context, db executor, projectID int64, nodeSpecs []model.NodeSpec, edgeSpecs []model.EdgeSpec) (*model.ReplaceResult, error) {
	if err := lockProject(ctx, db, projectID); err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM edges WHERE project_id = $1`, projectID); err != nil {
		return nil, fmt.Errorf("delete edges: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM nodes WHERE project_id = $1`, projectID); err != nil {
		return nil, fmt.Errorf("delete nodes: %w", err)
	}

	nodes := make([]*model.Node, 0, len(nodeSpecs))
	labels := make(map[int64]string, len(nodeSpecs))
	for i, spec := range nodeSpecs {
		n := spec.WithDefaults(projectID)
		err := db.QueryRowContext(ctx, `
			INSERT INTO nodes (project_id, label, processing_time, node_type)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			n.ProjectID,
			n.Label,
			n.ProcessingTime,
			string(n.Kind),
		).Scan(&n.ID)
		if err != nil {
			return nil, fmt.Errorf("insert node %d: %w", i, err)
		}
		nodes = append(nodes, n)
		labels[n.ID] = n.Label
	}

	refs := reconcile.Build(nodeSpecs, nodes)

	edges := make([]*model.Edge, 0, len(edgeSpecs))
	dropped := 0
	for i, spec := range edgeSpecs {
		source, target, ok := refs.Edge(spec)
		if !ok {
			dropped++
			continue
		}
		e := &model.Edge{
			ProjectID:    projectID,
			SourceNodeID: source,
			TargetNodeID: target,
		}
		err := db.QueryRowContext(ctx, `
			INSERT INTO edges (project_id, source_node_id, target_node_id)
			VALUES ($1, $2, $3)
			RETURNING id`,
			e.ProjectID,
			e.SourceNodeID,
			e.TargetNodeID,
		).Scan(&e.ID)
		if err != nil {
			return nil, fmt.Errorf("insert edge %d: %w", i, err)
		}
		sourceLabel, targetLabel := labels[source], labels[target]
		e.SourceLabel = &sourceLabel
		e.TargetLabel = &targetLabel
		edges = append(edges, e)
	}

	row := db.QueryRowContext(ctx, `
		UPDATE projects SET updated_at = NOW()
		WHERE id = $1
		RETURNING `+projectColumns, projectID)
	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("touch project: %w", err)
	}

	return &model.ReplaceResult{
		Project: project,
		Nodes:   nodes,
		Edges:   edges,
		Dropped: dropped,
	}, nil
}
