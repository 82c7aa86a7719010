package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/events"
	"github.com/alfredjeanlab/taskdeps/internal/graph"
	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// addDependencyInput holds transport-agnostic parameters for adding an edge.
type addDependencyInput struct {
	DependsOnID string `json:"depends_on_id"`
	CreatedBy   string `json:"created_by"`
}

// addDependencyResult is returned on a successful insert.
type addDependencyResult struct {
	Message    string               `json:"message"`
	Dependency *model.Dependency    `json:"dependency"`
	Changes    []model.StatusChange `json:"changes"`
}

// addDependency validates taskID -> dependsOnID against the current graph,
// inserts it, and persists whatever statuses that settles. The cycle check
// and the insert happen under the same lock, so two racing inserts cannot
// close a loop between them.
func (s *TasksServer) addDependency(ctx context.Context, taskID string, in addDependencyInput) (*addDependencyResult, error) {
	if in.DependsOnID == "" {
		return nil, inputError("depends_on_id is required")
	}

	dep := &model.Dependency{
		TaskID:      taskID,
		DependsOnID: in.DependsOnID,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   in.CreatedBy,
	}

	changes, err := s.withGraph(ctx, "dependency_added", taskID, func(tx store.Store, g *graph.Snapshot) ([]model.StatusChange, error) {
		changes, err := s.engine.AddDependency(g, taskID, in.DependsOnID)
		if err != nil {
			return nil, err
		}
		if err := tx.AddDependency(ctx, dep); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, graph.ErrDuplicateDependency
			}
			return nil, fmt.Errorf("failed to add dependency: %w", err)
		}
		return changes, nil
	})
	if err != nil {
		var ce *graph.CycleError
		if errors.As(err, &ce) {
			cyclesRejected.Inc()
		}
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicDependencyAdded, taskID, in.CreatedBy, events.DependencyAdded{Dependency: dep})
	s.publishChanges(ctx, taskID, in.CreatedBy, changes)

	if changes == nil {
		changes = []model.StatusChange{}
	}
	return &addDependencyResult{
		Message:    "Dependency added successfully",
		Dependency: dep,
		Changes:    changes,
	}, nil
}

// removeDependency deletes an edge and re-resolves taskID.
func (s *TasksServer) removeDependency(ctx context.Context, taskID, dependsOnID, actor string) ([]model.StatusChange, error) {
	if dependsOnID == "" {
		return nil, inputError("depends_on_id is required")
	}

	changes, err := s.withGraph(ctx, "dependency_removed", taskID, func(tx store.Store, g *graph.Snapshot) ([]model.StatusChange, error) {
		changes, err := s.engine.RemoveDependency(g, taskID, dependsOnID)
		if err != nil {
			return nil, err
		}
		if err := tx.RemoveDependency(ctx, taskID, dependsOnID); err != nil {
			return nil, fmt.Errorf("failed to remove dependency: %w", err)
		}
		return changes, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicDependencyRemoved, taskID, actor, events.DependencyRemoved{
		TaskID:      taskID,
		DependsOnID: dependsOnID,
	})
	s.publishChanges(ctx, taskID, actor, changes)

	if changes == nil {
		changes = []model.StatusChange{}
	}
	return changes, nil
}

// cycleCheck is the result of a dry-run cycle detection.
type cycleCheck struct {
	Cycle bool     `json:"cycle"`
	Path  []string `json:"path"`
}

// detectCycle reports whether taskID -> dependsOnID would close a loop,
// without changing anything. It reads a snapshot outside the graph lock,
// so the answer is advisory.
func (s *TasksServer) detectCycle(ctx context.Context, taskID, dependsOnID string) (*cycleCheck, error) {
	if dependsOnID == "" {
		return nil, inputError("depends_on_id is required")
	}

	ctx, span := tracer.Start(ctx, "graph.detect_cycle")
	defer span.End()

	g, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}
	for _, id := range []string{taskID, dependsOnID} {
		if !g.HasTask(id) {
			return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, id)
		}
	}

	path := graph.DetectCycle(g, taskID, dependsOnID)
	if path == nil {
		return &cycleCheck{Path: []string{}}, nil
	}
	return &cycleCheck{Cycle: true, Path: path}, nil
}

// getDependencies lists the edges leaving taskID.
func (s *TasksServer) getDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	deps, err := s.store.GetDependencies(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if deps == nil {
		deps = []*model.Dependency{}
	}
	return deps, nil
}

// getDependents lists the edges pointing at taskID.
func (s *TasksServer) getDependents(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	deps, err := s.store.GetDependents(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if deps == nil {
		deps = []*model.Dependency{}
	}
	return deps, nil
}
