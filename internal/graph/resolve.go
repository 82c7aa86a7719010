package graph

import "github.com/alfredjeanlab/taskdeps/internal/model"

// ResolveFunc computes a task's status from its direct dependency statuses.
type ResolveFunc func(current model.Status, deps []model.Status) model.Status

// Resolve applies the dependency precedence rule:
//
//   - no dependencies: current is kept
//   - any blocked: blocked
//   - all completed: in_progress
//   - otherwise: pending
//
// It never derives completed.
func Resolve(current model.Status, deps []model.Status) model.Status {
	if len(deps) == 0 {
		return current
	}
	allCompleted := true
	for _, s := range deps {
		if s == model.StatusBlocked {
			return model.StatusBlocked
		}
		if s != model.StatusCompleted {
			allCompleted = false
		}
	}
	if allCompleted {
		return model.StatusInProgress
	}
	return model.StatusPending
}
