// Package graph holds the dependency graph engine: cycle detection,
// status resolution and propagation of status changes to dependents.
// It performs no I/O; callers load a Graph, run an operation and persist
// the returned status changes.
package graph

import (
	"fmt"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// Engine runs graph operations with a configurable resolver.
type Engine struct {
	resolve ResolveFunc
}

// NewEngine returns an engine using resolve, or Resolve when nil.
func NewEngine(resolve ResolveFunc) *Engine {
	if resolve == nil {
		resolve = Resolve
	}
	return &Engine{resolve: resolve}
}

var defaultEngine = NewEngine(nil)

// AddDependency validates and inserts taskID -> dependsOnID using the default engine.
func AddDependency(g MutableGraph, taskID, dependsOnID string) ([]model.StatusChange, error) {
	return defaultEngine.AddDependency(g, taskID, dependsOnID)
}

// RemoveDependency deletes taskID -> dependsOnID using the default engine.
func RemoveDependency(g MutableGraph, taskID, dependsOnID string) ([]model.StatusChange, error) {
	return defaultEngine.RemoveDependency(g, taskID, dependsOnID)
}

// OnStatusChanged cascades a direct status change using the default engine.
func OnStatusChanged(g Graph, taskID string) ([]model.StatusChange, error) {
	return defaultEngine.OnStatusChanged(g, taskID)
}

// AddDependency validates the edge, inserts it into g, re-resolves taskID
// and cascades any resulting change. Nothing is inserted on error.
//
// Errors: ErrSelfDependency, ErrNotFound, ErrDuplicateDependency, or a
// *CycleError carrying the loop.
func (e *Engine) AddDependency(g MutableGraph, taskID, dependsOnID string) ([]model.StatusChange, error) {
	if taskID == dependsOnID {
		return nil, ErrSelfDependency
	}
	for _, id := range []string{taskID, dependsOnID} {
		if !g.HasTask(id) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	if g.HasEdge(taskID, dependsOnID) {
		return nil, ErrDuplicateDependency
	}
	if path := DetectCycle(g, taskID, dependsOnID); path != nil {
		return nil, &CycleError{Path: path}
	}

	if err := g.AddEdge(taskID, dependsOnID); err != nil {
		return nil, err
	}
	return e.settle(g, taskID)
}

// RemoveDependency deletes the edge and re-resolves taskID from whatever
// dependencies remain. A task left with no dependencies keeps its status.
func (e *Engine) RemoveDependency(g MutableGraph, taskID, dependsOnID string) ([]model.StatusChange, error) {
	if !g.HasEdge(taskID, dependsOnID) {
		return nil, ErrDependencyNotFound
	}
	if err := g.RemoveEdge(taskID, dependsOnID); err != nil {
		return nil, err
	}
	return e.settle(g, taskID)
}

// OnStatusChanged must be called after a direct status write on taskID.
func (e *Engine) OnStatusChanged(g Graph, taskID string) ([]model.StatusChange, error) {
	return e.Propagate(g, taskID)
}

// Resettle re-resolves every task in ids and cascades the changes in one
// walk. It is used after a task is deleted, with the former dependents of
// that task. A task below several of them is still resolved only once.
func (e *Engine) Resettle(g Graph, ids []string) ([]model.StatusChange, error) {
	return e.cascade(g, nil, ids)
}

// Resettle re-resolves ids using the default engine.
func Resettle(g Graph, ids []string) ([]model.StatusChange, error) {
	return defaultEngine.Resettle(g, ids)
}

// settle resolves taskID and cascades whatever moved.
func (e *Engine) settle(g Graph, taskID string) ([]model.StatusChange, error) {
	if _, err := g.Status(taskID); err != nil {
		return nil, err
	}
	return e.cascade(g, nil, []string{taskID})
}
