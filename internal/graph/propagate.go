package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// Propagate cascades a status change on root to every task that
// transitively depends on it, using the default engine.
func Propagate(g Graph, root string) ([]model.StatusChange, error) {
	return defaultEngine.Propagate(g, root)
}

// Propagate recomputes the dependents of root after its status changed.
// Each task is resolved at most once, and only if one of its dependencies
// actually moved.
func (e *Engine) Propagate(g Graph, root string) ([]model.StatusChange, error) {
	if _, err := g.Status(root); err != nil {
		return nil, err
	}
	return e.cascade(g, []string{root}, nil)
}

// cascade walks the tasks reachable from moved and force along the
// dependents relation, in topological order. Tasks in moved have already
// changed and are not resolved. Tasks in force are resolved once all of
// their dependencies inside the walk have settled. Any other task is
// resolved only if one of its dependencies moved. Every task is resolved
// at most once per call, so the work is bounded by the size of the region.
func (e *Engine) cascade(g Graph, moved, force []string) ([]model.StatusChange, error) {
	region := map[string]bool{}
	dirty := map[string]bool{}
	forced := map[string]bool{}
	var queue []string
	for _, id := range moved {
		dirty[id] = true
		queue = append(queue, id)
	}
	for _, id := range force {
		forced[id] = true
		queue = append(queue, id)
	}
	for _, id := range queue {
		region[id] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.DirectDependents(cur) {
			if !region[next] {
				region[next] = true
				queue = append(queue, next)
			}
		}
	}

	// pending counts, for each task, the dependencies inside the region
	// that have not settled yet.
	pending := make(map[string]int, len(region))
	ids := make([]string, 0, len(region))
	for id := range region {
		ids = append(ids, id)
		for _, dep := range g.DirectDependencies(id) {
			if region[dep] {
				pending[id]++
			}
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	touched := map[string]bool{}
	settled := 0
	var changes []model.StatusChange

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		settled++

		if !dirty[cur] && (forced[cur] || touched[cur]) {
			change, err := e.resolveTask(g, cur)
			if err != nil {
				return changes, err
			}
			if change != nil {
				changes = append(changes, *change)
				dirty[cur] = true
			}
		}

		for _, next := range g.DirectDependents(cur) {
			if dirty[cur] {
				touched[next] = true
			}
			pending[next]--
			if pending[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if settled != len(region) {
		seeds := append(slices.Clone(moved), force...)
		return changes, fmt.Errorf("cascade from %s: %w", strings.Join(seeds, ","), ErrCyclicGraph)
	}
	return changes, nil
}

// resolveTask recomputes one task and writes the result back when it differs.
func (e *Engine) resolveTask(g Graph, taskID string) (*model.StatusChange, error) {
	current, err := g.Status(taskID)
	if err != nil {
		return nil, err
	}
	deps := g.DirectDependencies(taskID)
	statuses := make([]model.Status, 0, len(deps))
	for _, dep := range deps {
		st, err := g.Status(dep)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}

	next := e.resolve(current, statuses)
	if next == current {
		return nil, nil
	}
	if err := g.SetStatus(taskID, next); err != nil {
		return nil, err
	}
	return &model.StatusChange{TaskID: taskID, From: current, To: next}, nil
}
