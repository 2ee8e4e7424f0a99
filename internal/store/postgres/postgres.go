// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already-open database. No migrations are run.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateProject(ctx context.Context, project *model.Project) error {
	return queryCreateProject(ctx, s.db, project)
}

func (s *PostgresStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	return queryGetProject(ctx, s.db, id)
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	return queryListProjects(ctx, s.db)
}

func (s *PostgresStore) GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error) {
	return queryGetGraph(ctx, s.db, projectID)
}

// ReplaceGraph runs the replace-all save in its own transaction.
func (s *PostgresStore) ReplaceGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error) {
	var result *model.ReplaceResult
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		result, err = tx.ReplaceGraph(ctx, projectID, nodes, edges)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateProject(ctx context.Context, project *model.Project) error {
	return queryCreateProject(ctx, s.tx, project)
}

func (s *txStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	return queryGetProject(ctx, s.tx, id)
}

func (s *txStore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	return queryListProjects(ctx, s.tx)
}

func (s *txStore) GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error) {
	return queryGetGraph(ctx, s.tx, projectID)
}

func (s *txStore) ReplaceGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error) {
	return queryReplaceGraph(ctx, s.tx, projectID, nodes, edges)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
