package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

const (
	pending    = model.StatusPending
	inProgress = model.StatusInProgress
	blocked    = model.StatusBlocked
	completed  = model.StatusCompleted
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		current model.Status
		deps    []model.Status
		want    model.Status
	}{
		{"no deps keeps pending", pending, nil, pending},
		{"no deps keeps completed", completed, nil, completed},
		{"no deps keeps blocked", blocked, []model.Status{}, blocked},
		{"single completed", pending, []model.Status{completed}, inProgress},
		{"all completed", pending, []model.Status{completed, completed, completed}, inProgress},
		{"partial completion", pending, []model.Status{completed, pending}, pending},
		{"in progress dep", pending, []model.Status{inProgress}, pending},
		{"blocked wins over completed", pending, []model.Status{completed, blocked}, blocked},
		{"blocked wins regardless of order", inProgress, []model.Status{blocked, completed}, blocked},
		{"blocked wins over pending", pending, []model.Status{pending, blocked, inProgress}, blocked},
		{"completed task is re-derived", completed, []model.Status{pending}, pending},
		{"unblocked back to pending", blocked, []model.Status{pending}, pending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.current, tt.deps))
		})
	}
}

func TestResolve_NeverDerivesCompleted(t *testing.T) {
	all := model.Statuses()
	for _, cur := range all {
		for _, a := range all {
			for _, b := range all {
				got := Resolve(cur, []model.Status{a, b})
				assert.NotEqual(t, completed, got, "Resolve(%s, [%s %s])", cur, a, b)
			}
		}
	}
}
