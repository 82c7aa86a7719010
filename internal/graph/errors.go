package graph

import (
	"errors"
	"strings"
)

var (
	// ErrSelfDependency is returned when a task would depend on itself.
	ErrSelfDependency = errors.New("task cannot depend on itself")

	// ErrNotFound is returned when a referenced task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrDuplicateDependency is returned when the edge already exists.
	ErrDuplicateDependency = errors.New("dependency already exists")

	// ErrDependencyNotFound is returned when removing an edge that does not exist.
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrCyclicGraph is returned when propagation finds the stored graph is
	// not acyclic. Edges are validated on insert, so this only happens when
	// the data was written around the engine.
	ErrCyclicGraph = errors.New("dependency graph contains a cycle")
)

// CycleError reports that adding an edge would close a loop.
// Path starts and ends with the proposed depends-on task.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular dependency detected: " + strings.Join(e.Path, " -> ")
}
