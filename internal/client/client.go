// Package client provides a transport-agnostic interface for the taskdeps
// service, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// TasksClient is the interface that all td CLI commands use to talk to the
// server.
type TasksClient interface {
	// Task CRUD
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]*model.Task, error)
	UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*UpdateTaskResponse, error)
	DeleteTask(ctx context.Context, id string) error

	// Dependencies
	AddDependency(ctx context.Context, req *AddDependencyRequest) (*AddDependencyResponse, error)
	RemoveDependency(ctx context.Context, taskID, dependsOnID string) error
	GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error)
	GetDependents(ctx context.Context, taskID string) ([]*model.Dependency, error)
	CheckCycle(ctx context.Context, taskID, dependsOnID string) (*CycleCheck, error)

	// Events
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Graph
	GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error)
	GetStats(ctx context.Context) (*model.GraphStats, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateTaskRequest holds parameters for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// UpdateTaskRequest holds a partial update; nil fields are not sent.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	UpdatedBy   string  `json:"updated_by,omitempty"`
}

// UpdateTaskResponse is the updated task and the statuses it moved.
type UpdateTaskResponse struct {
	Task    *model.Task          `json:"task"`
	Changes []model.StatusChange `json:"changes"`
}

// AddDependencyRequest holds parameters for adding an edge.
type AddDependencyRequest struct {
	TaskID      string `json:"-"`
	DependsOnID string `json:"depends_on_id"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// AddDependencyResponse is returned for a new edge.
type AddDependencyResponse struct {
	Message    string               `json:"message"`
	Dependency *model.Dependency    `json:"dependency"`
	Changes    []model.StatusChange `json:"changes"`
}

// CycleCheck is the result of a dry-run cycle check.
type CycleCheck struct {
	Cycle bool     `json:"cycle"`
	Path  []string `json:"path"`
}

// APIError represents an error response from the server. Both transports
// report HTTP status codes.
type APIError struct {
	StatusCode int
	Message    string
	Path       []string // the loop, for cycle rejections
}

func (e *APIError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
