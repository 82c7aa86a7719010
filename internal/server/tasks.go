package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/events"
	"github.com/alfredjeanlab/taskdeps/internal/graph"
	"github.com/alfredjeanlab/taskdeps/internal/idgen"
	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// createTaskInput holds transport-agnostic parameters for creating a task.
type createTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedBy   string `json:"created_by"`
}

// createTask validates input, persists a new task and publishes a
// TaskCreated event. A new task has no edges, so the graph is untouched.
func (s *TasksServer) createTask(ctx context.Context, in createTaskInput) (*model.Task, error) {
	if in.Title == "" {
		return nil, inputError("title is required")
	}

	id, err := idgen.NewTaskID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Status:       model.StatusPending,
		CreatedAt:    now,
		CreatedBy:    in.CreatedBy,
		UpdatedAt:    now,
		Dependencies: []string{},
	}
	if in.Status != "" {
		task.Status = model.Status(in.Status)
	}

	if err := model.ValidateTask(task); err != nil {
		return nil, inputError("invalid task: " + err.Error())
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicTaskCreated, task.ID, task.CreatedBy, events.TaskCreated{Task: task})
	return task, nil
}

// getTask returns the task with its dependency ids, or sql.ErrNoRows.
func (s *TasksServer) getTask(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetTask(ctx, id)
}

// listTasks returns every task, oldest first.
func (s *TasksServer) listTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, _, err := s.store.ListTasks(ctx, model.TaskFilter{Sort: "created_at"})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return tasks, nil
}

// updateTaskInput holds a partial update; nil fields are left alone.
type updateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	UpdatedBy   string  `json:"updated_by"`
}

// updateTaskResult is the updated task plus every status it caused to move.
type updateTaskResult struct {
	Task    *model.Task          `json:"task"`
	Changes []model.StatusChange `json:"changes"`
}

// updateTask applies a partial update. A status change is a direct user
// action: it is written under the graph lock and cascaded to dependents.
func (s *TasksServer) updateTask(ctx context.Context, id string, in updateTaskInput) (*updateTaskResult, error) {
	fields := make(map[string]any)
	apply := func(task *model.Task) error {
		if in.Title != nil {
			task.Title = *in.Title
			fields["title"] = *in.Title
		}
		if in.Description != nil {
			task.Description = *in.Description
			fields["description"] = *in.Description
		}
		if in.Status != nil {
			task.Status = model.Status(*in.Status)
			fields["status"] = *in.Status
		}
		task.UpdatedAt = time.Now().UTC()
		if err := model.ValidateTask(task); err != nil {
			return inputError("invalid task: " + err.Error())
		}
		return nil
	}

	var (
		task    *model.Task
		direct  *model.StatusChange
		changes []model.StatusChange
	)

	// Field-only edits skip the graph lock. UpdateTask leaves status alone,
	// so a propagation committed in between is not overwritten.
	if in.Status == nil {
		t, err := s.store.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(t); err != nil {
			return nil, err
		}
		if err := s.store.UpdateTask(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		task = t
	} else {
		var err error
		changes, err = s.withGraph(ctx, "status_changed", id, func(tx store.Store, g *graph.Snapshot) ([]model.StatusChange, error) {
			t, err := tx.GetTask(ctx, id)
			if err != nil {
				return nil, err
			}
			from := t.Status
			if err := apply(t); err != nil {
				return nil, err
			}
			to := t.Status
			if from != to {
				if err := tx.SetTaskStatus(ctx, id, to); err != nil {
					return nil, fmt.Errorf("failed to set status: %w", err)
				}
			}
			if err := tx.UpdateTask(ctx, t); err != nil {
				return nil, fmt.Errorf("failed to update task: %w", err)
			}
			task = t
			if from == to {
				return nil, nil
			}
			direct = &model.StatusChange{TaskID: id, From: from, To: to}
			if err := g.SetStatus(id, to); err != nil {
				return nil, err
			}
			return s.engine.OnStatusChanged(g, id)
		})
		if err != nil {
			return nil, err
		}
	}

	if changes == nil {
		changes = []model.StatusChange{}
	}

	s.recordAndPublish(ctx, events.TopicTaskUpdated, id, in.UpdatedBy, events.TaskUpdated{Task: task, Changes: fields})
	if direct != nil {
		s.recordAndPublish(ctx, events.TopicStatusChanged, id, in.UpdatedBy, events.StatusChanged{
			TaskID: id,
			From:   direct.From,
			To:     direct.To,
			Cause:  events.CauseDirect,
		})
	}
	s.publishChanges(ctx, id, in.UpdatedBy, changes)

	return &updateTaskResult{Task: task, Changes: changes}, nil
}

// deleteTask removes a task. Its edges go with it; the tasks that depended
// on it are re-resolved from what they have left.
func (s *TasksServer) deleteTask(ctx context.Context, id, actor string) ([]model.StatusChange, error) {
	changes, err := s.withGraph(ctx, "task_deleted", id, func(tx store.Store, g *graph.Snapshot) ([]model.StatusChange, error) {
		if !g.HasTask(id) {
			return nil, sql.ErrNoRows
		}
		dependents := g.DirectDependents(id)
		if err := tx.DeleteTask(ctx, id); err != nil {
			return nil, err
		}
		g.RemoveTask(id)
		return s.engine.Resettle(g, dependents)
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicTaskDeleted, id, actor, events.TaskDeleted{TaskID: id})
	s.publishChanges(ctx, id, actor, changes)
	if changes == nil {
		changes = []model.StatusChange{}
	}
	return changes, nil
}
