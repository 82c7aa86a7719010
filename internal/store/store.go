package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Store defines the persistence interface for tasks and their dependencies.
type Store interface {
	// Task CRUD
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error) // returns tasks, total count, error
	// UpdateTask writes title and description only and refreshes task.Status
	// and task.UpdatedAt from the row. Status is written by SetTaskStatus.
	UpdateTask(ctx context.Context, task *model.Task) error
	SetTaskStatus(ctx context.Context, id string, status model.Status) error
	DeleteTask(ctx context.Context, id string) error

	// Dependencies
	AddDependency(ctx context.Context, dep *model.Dependency) error
	RemoveDependency(ctx context.Context, taskID, dependsOnID string) error
	GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error)
	GetDependents(ctx context.Context, taskID string) ([]*model.Dependency, error)
	ListDependencies(ctx context.Context) ([]*model.Dependency, error)

	// LockGraph serializes graph mutations across processes for the rest of
	// the surrounding transaction. Outside a transaction it is a no-op.
	LockGraph(ctx context.Context) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Graph
	GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error)
	GetStats(ctx context.Context) (*model.GraphStats, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
