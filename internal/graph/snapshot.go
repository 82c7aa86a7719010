package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// Graph is what the engine needs from whoever owns the task data.
// Implementations must stay consistent for the duration of one engine call.
type Graph interface {
	DirectDependencies(taskID string) []string
	DirectDependents(taskID string) []string
	Status(taskID string) (model.Status, error)
	SetStatus(taskID string, status model.Status) error
}

// MutableGraph is a Graph whose edge set can be changed by the engine.
type MutableGraph interface {
	Graph
	HasTask(taskID string) bool
	HasEdge(taskID, dependsOnID string) bool
	AddEdge(taskID, dependsOnID string) error
	RemoveEdge(taskID, dependsOnID string) error
}

// Snapshot is an in-memory adjacency view of the dependency graph.
// It is not safe for concurrent use; callers load one per operation.
type Snapshot struct {
	statuses   map[string]model.Status
	deps       map[string]map[string]struct{} // task -> depends_on set
	dependents map[string]map[string]struct{} // depends_on -> task set
}

var _ MutableGraph = (*Snapshot)(nil)

// NewSnapshot returns an empty graph.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		statuses:   make(map[string]model.Status),
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// Load builds a snapshot from task records and dependency edges.
// Edges referencing unknown tasks are rejected.
func Load(tasks []*model.Task, edges []*model.Dependency) (*Snapshot, error) {
	s := NewSnapshot()
	for _, t := range tasks {
		s.AddTask(t.ID, t.Status)
	}
	for _, e := range edges {
		if err := s.AddEdge(e.TaskID, e.DependsOnID); err != nil {
			return nil, fmt.Errorf("load edge %s -> %s: %w", e.TaskID, e.DependsOnID, err)
		}
	}
	return s, nil
}

// AddTask registers a task, overwriting the status if it already exists.
func (s *Snapshot) AddTask(taskID string, status model.Status) {
	s.statuses[taskID] = status
}

// RemoveTask deletes a task and every edge touching it.
func (s *Snapshot) RemoveTask(taskID string) {
	for dep := range s.deps[taskID] {
		delete(s.dependents[dep], taskID)
	}
	for dependent := range s.dependents[taskID] {
		delete(s.deps[dependent], taskID)
	}
	delete(s.deps, taskID)
	delete(s.dependents, taskID)
	delete(s.statuses, taskID)
}

func (s *Snapshot) HasTask(taskID string) bool {
	_, ok := s.statuses[taskID]
	return ok
}

func (s *Snapshot) HasEdge(taskID, dependsOnID string) bool {
	_, ok := s.deps[taskID][dependsOnID]
	return ok
}

// AddEdge inserts taskID -> dependsOnID without any cycle check.
func (s *Snapshot) AddEdge(taskID, dependsOnID string) error {
	if !s.HasTask(taskID) {
		return fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	if !s.HasTask(dependsOnID) {
		return fmt.Errorf("%w: %s", ErrNotFound, dependsOnID)
	}
	if s.deps[taskID] == nil {
		s.deps[taskID] = make(map[string]struct{})
	}
	if s.dependents[dependsOnID] == nil {
		s.dependents[dependsOnID] = make(map[string]struct{})
	}
	s.deps[taskID][dependsOnID] = struct{}{}
	s.dependents[dependsOnID][taskID] = struct{}{}
	return nil
}

func (s *Snapshot) RemoveEdge(taskID, dependsOnID string) error {
	if !s.HasEdge(taskID, dependsOnID) {
		return ErrDependencyNotFound
	}
	delete(s.deps[taskID], dependsOnID)
	delete(s.dependents[dependsOnID], taskID)
	return nil
}

// DirectDependencies returns the ids taskID depends on, sorted.
func (s *Snapshot) DirectDependencies(taskID string) []string {
	return slices.Sorted(maps.Keys(s.deps[taskID]))
}

// DirectDependents returns the ids that depend on taskID, sorted.
func (s *Snapshot) DirectDependents(taskID string) []string {
	return slices.Sorted(maps.Keys(s.dependents[taskID]))
}

func (s *Snapshot) Status(taskID string) (model.Status, error) {
	st, ok := s.statuses[taskID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	return st, nil
}

func (s *Snapshot) SetStatus(taskID string, status model.Status) error {
	if !s.HasTask(taskID) {
		return fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	s.statuses[taskID] = status
	return nil
}

// Len returns the number of tasks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.statuses)
}
