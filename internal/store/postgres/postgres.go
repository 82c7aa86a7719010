// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// graphLockKey is the advisory lock id guarding dependency graph mutations.
const graphLockKey int64 = 0x7461736b64657073 // "taskdeps"

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

// NewWithDB wraps an already opened database without running migrations.
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

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *model.Task) error {
	return queryCreateTask(ctx, s.db, task)
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return queryGetTask(ctx, s.db, id)
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	return queryListTasks(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateTask(ctx context.Context, task *model.Task) error {
	return queryUpdateTask(ctx, s.db, task)
}

func (s *PostgresStore) SetTaskStatus(ctx context.Context, id string, status model.Status) error {
	return querySetTaskStatus(ctx, s.db, id, status)
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	return queryDeleteTask(ctx, s.db, id)
}

func (s *PostgresStore) AddDependency(ctx context.Context, dep *model.Dependency) error {
	return queryAddDependency(ctx, s.db, dep)
}

func (s *PostgresStore) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	return queryRemoveDependency(ctx, s.db, taskID, dependsOnID)
}

func (s *PostgresStore) GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	return queryGetDependencies(ctx, s.db, taskID)
}

func (s *PostgresStore) GetDependents(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	return queryGetDependents(ctx, s.db, taskID)
}

func (s *PostgresStore) ListDependencies(ctx context.Context) ([]*model.Dependency, error) {
	return queryListDependencies(ctx, s.db)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.db, taskID)
}

func (s *PostgresStore) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	return queryGetGraph(ctx, s.db, limit)
}

func (s *PostgresStore) GetStats(ctx context.Context) (*model.GraphStats, error) {
	return queryGetStats(ctx, s.db)
}

// LockGraph is a no-op outside a transaction: a session-level lock would
// outlive the request on a pooled connection.
func (s *PostgresStore) LockGraph(ctx context.Context) error {
	return nil
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

func (s *txStore) CreateTask(ctx context.Context, task *model.Task) error {
	return queryCreateTask(ctx, s.tx, task)
}

func (s *txStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return queryGetTask(ctx, s.tx, id)
}

func (s *txStore) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	return queryListTasks(ctx, s.tx, filter)
}

func (s *txStore) UpdateTask(ctx context.Context, task *model.Task) error {
	return queryUpdateTask(ctx, s.tx, task)
}

func (s *txStore) SetTaskStatus(ctx context.Context, id string, status model.Status) error {
	return querySetTaskStatus(ctx, s.tx, id, status)
}

func (s *txStore) DeleteTask(ctx context.Context, id string) error {
	return queryDeleteTask(ctx, s.tx, id)
}

func (s *txStore) AddDependency(ctx context.Context, dep *model.Dependency) error {
	return queryAddDependency(ctx, s.tx, dep)
}

func (s *txStore) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	return queryRemoveDependency(ctx, s.tx, taskID, dependsOnID)
}

func (s *txStore) GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	return queryGetDependencies(ctx, s.tx, taskID)
}

func (s *txStore) GetDependents(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	return queryGetDependents(ctx, s.tx, taskID)
}

func (s *txStore) ListDependencies(ctx context.Context) ([]*model.Dependency, error) {
	return queryListDependencies(ctx, s.tx)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.tx, taskID)
}

func (s *txStore) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	return queryGetGraph(ctx, s.tx, limit)
}

func (s *txStore) GetStats(ctx context.Context) (*model.GraphStats, error) {
	return queryGetStats(ctx, s.tx)
}

// LockGraph takes a transaction-scoped advisory lock, released on commit or
// rollback.
func (s *txStore) LockGraph(ctx context.Context) error {
	if _, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, graphLockKey); err != nil {
		return fmt.Errorf("lock graph: %w", err)
	}
	return nil
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
