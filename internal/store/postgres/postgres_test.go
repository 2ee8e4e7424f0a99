package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var (
	projectRowColumns = []string{"id", "name", "description", "created_at", "updated_at"}
	nodeRowColumns    = []string{"id", "project_id", "label", "processing_time", "node_type"}
	edgeRowColumns    = []string{"id", "project_id", "source_node_id", "target_node_id", "source_label", "target_label"}
)

func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }
func f64(v float64) *float64 {
	return &v
}

// expectLock sets up the existence check that opens every replace.
func expectLock(mock sqlmock.Sqlmock, projectID int64) {
	mock.ExpectQuery("SELECT id FROM projects WHERE id = \\$1 FOR UPDATE").WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(projectID))
}

// expectClear sets up the two deletes that empty a project graph.
func expectClear(mock sqlmock.Sqlmock, projectID int64, edges, nodes int64) {
	mock.ExpectExec("DELETE FROM edges WHERE project_id = \\$1").WithArgs(projectID).
		WillReturnResult(sqlmock.NewResult(0, edges))
	mock.ExpectExec("DELETE FROM nodes WHERE project_id = \\$1").WithArgs(projectID).
		WillReturnResult(sqlmock.NewResult(0, nodes))
}

func expectInsertNode(mock sqlmock.Sqlmock, projectID int64, label string, pt float64, kind string, newID int64) {
	mock.ExpectQuery("INSERT INTO nodes").WithArgs(projectID, label, pt, kind).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(newID))
}

func expectInsertEdge(mock sqlmock.Sqlmock, projectID, source, target, newID int64) {
	mock.ExpectQuery("INSERT INTO edges").WithArgs(projectID, source, target).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(newID))
}

func expectTouch(mock sqlmock.Sqlmock, projectID int64, now time.Time) {
	mock.ExpectQuery("UPDATE projects SET updated_at = NOW\\(\\)").WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow(projectID, "Demo", "", now, now))
}

func TestQueryCreateProject(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO projects").WithArgs("Demo", "a demo").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	p := &model.Project{Name: "Demo", Description: "a demo"}
	if err := queryCreateProject(context.Background(), db, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 7 || !p.CreatedAt.Equal(now) {
		t.Errorf("got id=%d created_at=%v", p.ID, p.CreatedAt)
	}
}

func TestQueryGetProject_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM projects WHERE id = \\$1").WithArgs(int64(999999)).
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetProject(context.Background(), db, 999999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestQueryListProjects(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM projects ORDER BY id").
		WillReturnRows(sqlmock.NewRows(projectRowColumns).
			AddRow(int64(1), "One", nil, now, now).
			AddRow(int64(2), "Two", "second", now, now))

	projects, err := queryListProjects(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 2 || projects[0].Description != "" || projects[1].Description != "second" {
		t.Fatalf("unexpected projects: %+v", projects)
	}
}

func TestQueryGetGraph(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM projects WHERE id = \\$1").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow(int64(1), "Demo", "", now, now))
	mock.ExpectQuery("SELECT .+ FROM nodes\\s+WHERE project_id = \\$1\\s+ORDER BY id").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(nodeRowColumns).
			AddRow(int64(10), int64(1), "Gen", 10.0, "generator").
			AddRow(int64(11), int64(1), "Proc", 4.5, "processor"))
	mock.ExpectQuery("SELECT .+ FROM edges e\\s+LEFT JOIN nodes n1 .+ LEFT JOIN nodes n2 .+ORDER BY e.id").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(edgeRowColumns).
			AddRow(int64(20), int64(1), int64(10), int64(11), "Gen", "Proc").
			AddRow(int64(21), int64(1), int64(10), int64(99), "Gen", nil))

	g, err := queryGetGraph(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Counts.TotalNodes != 2 || g.Counts.TotalEdges != 2 {
		t.Fatalf("counts = %+v", g.Counts)
	}
	if g.Nodes[1].Kind != model.KindProcessor || g.Nodes[1].ProcessingTime != 4.5 {
		t.Errorf("node[1] = %+v", g.Nodes[1])
	}
	if g.Edges[0].SourceLabel == nil || *g.Edges[0].SourceLabel != "Gen" {
		t.Errorf("edge[0].SourceLabel = %v", g.Edges[0].SourceLabel)
	}
	if g.Edges[1].TargetLabel != nil {
		t.Errorf("dangling endpoint should have nil label, got %q", *g.Edges[1].TargetLabel)
	}
}

func TestQueryGetGraph_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM projects WHERE id = \\$1").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow(int64(3), "Empty", "", now, now))
	mock.ExpectQuery("FROM nodes").WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows(nodeRowColumns))
	mock.ExpectQuery("FROM edges e").WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows(edgeRowColumns))

	g, err := queryGetGraph(context.Background(), db, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Nodes == nil || g.Edges == nil {
		t.Fatal("nodes and edges must be non-nil for JSON output")
	}
}

func TestQueryGetGraph_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM projects WHERE id = \\$1").WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	if _, err := queryGetGraph(context.Background(), db, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestQueryReplaceGraph(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	expectLock(mock, 1)
	expectClear(mock, 1, 1, 2)
	expectInsertNode(mock, 1, "Gen", 10.0, "generator", 30)
	expectInsertNode(mock, 1, "Untitled Node", 2.0, "processor", 31)
	expectInsertNode(mock, 1, "Fresh", 10.0, "generator", 32)
	expectInsertEdge(mock, 1, 30, 31, 40) // by prior id
	expectInsertEdge(mock, 1, 31, 32, 41) // target by label
	expectTouch(mock, 1, now)

	nodes := []model.NodeSpec{
		{ID: i64(10), Label: str("Gen")},
		{ID: i64(11), ProcessingTime: f64(2), Kind: str("processor")},
		{Label: str("Fresh")},
	}
	edges := []model.EdgeSpec{
		{SourceNodeID: i64(10), TargetNodeID: i64(11)},
		{SourceNodeID: i64(11), TargetLabel: str("Fresh")},
		{SourceNodeID: i64(10), TargetNodeID: i64(12345)}, // dangling
		{SourceLabel: str("Ghost"), TargetLabel: str("Gen")},
	}

	res, err := queryReplaceGraph(context.Background(), db, 1, nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Nodes) != 3 || res.Nodes[1].Label != model.DefaultNodeLabel {
		t.Fatalf("nodes = %+v", res.Nodes)
	}
	if len(res.Edges) != 2 || res.Dropped != 2 {
		t.Fatalf("edges = %d dropped = %d, want 2 and 2", len(res.Edges), res.Dropped)
	}
	if *res.Edges[1].TargetLabel != "Fresh" {
		t.Errorf("edge[1].TargetLabel = %q", *res.Edges[1].TargetLabel)
	}
	if !res.Project.UpdatedAt.Equal(now) {
		t.Errorf("project updated_at not refreshed")
	}
}

func TestQueryReplaceGraph_ClearGraph(t *testing.T) {
	db, mock := newMockDB(t)
	expectLock(mock, 5)
	expectClear(mock, 5, 3, 4)
	expectTouch(mock, 5, time.Now().UTC())

	res, err := queryReplaceGraph(context.Background(), db, 5, []model.NodeSpec{}, []model.EdgeSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Nodes) != 0 || len(res.Edges) != 0 {
		t.Fatalf("expected empty graph, got %d nodes %d edges", len(res.Nodes), len(res.Edges))
	}
}

func TestQueryReplaceGraph_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT id FROM projects WHERE id = \\$1 FOR UPDATE").WithArgs(int64(999999)).
		WillReturnError(sql.ErrNoRows)

	_, err := queryReplaceGraph(context.Background(), db, 999999, nil, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_ReplaceGraphCommits(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	expectLock(mock, 2)
	expectClear(mock, 2, 0, 0)
	expectInsertNode(mock, 2, "A", 10.0, "generator", 1)
	expectInsertNode(mock, 2, "B", 10.0, "generator", 2)
	expectInsertEdge(mock, 2, 1, 2, 3)
	expectTouch(mock, 2, time.Now().UTC())
	mock.ExpectCommit()

	res, err := s.ReplaceGraph(context.Background(), 2,
		[]model.NodeSpec{{Label: str("A")}, {Label: str("B")}},
		[]model.EdgeSpec{{SourceLabel: str("A"), TargetLabel: str("B")}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(res.Edges))
	}
}

func TestPostgresStore_ReplaceGraphRollsBackOnEdgeFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	expectLock(mock, 2)
	expectClear(mock, 2, 1, 2)
	expectInsertNode(mock, 2, "A", 10.0, "generator", 1)
	expectInsertNode(mock, 2, "B", 10.0, "generator", 2)
	expectInsertEdge(mock, 2, 1, 2, 3)
	mock.ExpectQuery("INSERT INTO edges").WithArgs(int64(2), int64(2), int64(1)).
		WillReturnError(errors.New("violates foreign key constraint"))
	mock.ExpectRollback()

	_, err := s.ReplaceGraph(context.Background(), 2,
		[]model.NodeSpec{{Label: str("A")}, {Label: str("B")}},
		[]model.EdgeSpec{
			{SourceLabel: str("A"), TargetLabel: str("B")},
			{SourceLabel: str("B"), TargetLabel: str("A")},
		},
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Fatalf("constraint failure must not look like NotFound: %v", err)
	}
}

func TestPostgresStore_ReplaceGraphNotFoundRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM projects WHERE id = \\$1 FOR UPDATE").WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.ReplaceGraph(context.Background(), 8, []model.NodeSpec{}, []model.EdgeSpec{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_ReplaceGraphCommitFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	expectLock(mock, 4)
	expectClear(mock, 4, 0, 0)
	expectTouch(mock, 4, time.Now().UTC())
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, err := s.ReplaceGraph(context.Background(), 4, []model.NodeSpec{}, []model.EdgeSpec{})
	if err == nil {
		t.Fatal("expected commit error")
	}
}

func TestTxStore_RunInTransactionReusesTx(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM projects WHERE id = \\$1").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow(int64(1), "Demo", "", now, now))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.RunInTransaction(context.Background(), func(inner store.Store) error {
			_, err := inner.GetProject(context.Background(), 1)
			return err
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
