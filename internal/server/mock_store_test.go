package server

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// mockStore is an in-memory store.Store. RunInTransaction restores the
// previous state when fn fails, so rollback paths can be asserted.
type mockStore struct {
	txMu sync.Mutex // one transaction at a time

	mu          sync.Mutex
	tasks       map[string]*model.Task
	deps        []*model.Dependency
	events      []*model.Event
	nextEventID int64
	lockCalls   int
	statusCalls int

	// setStatusErr, when non-nil, is returned by SetTaskStatus.
	setStatusErr error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{tasks: make(map[string]*model.Task)}
}

func (m *mockStore) depIDs(taskID string) []string {
	ids := []string{}
	for _, d := range m.deps {
		if d.TaskID == taskID {
			ids = append(ids, d.DependsOnID)
		}
	}
	return ids
}

func (m *mockStore) clone(t *model.Task) *model.Task {
	c := *t
	c.Dependencies = m.depIDs(t.ID)
	return &c
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; ok {
		return store.ErrDuplicate
	}
	c := *task
	m.tasks[task.ID] = &c
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.clone(t), nil
}

func (m *mockStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Task
	for _, t := range m.tasks {
		out = append(out, m.clone(t))
	}
	slices.SortFunc(out, func(a, b *model.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	total := len(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *mockStore) UpdateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[task.ID]
	if !ok {
		return sql.ErrNoRows
	}
	t.Title = task.Title
	t.Description = task.Description
	t.UpdatedAt = time.Now().UTC()
	task.Status = t.Status
	task.UpdatedAt = t.UpdatedAt
	return nil
}

func (m *mockStore) SetTaskStatus(_ context.Context, id string, status model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.tasks, id)
	m.deps = slices.DeleteFunc(m.deps, func(d *model.Dependency) bool {
		return d.TaskID == id || d.DependsOnID == id
	})
	return nil
}

func (m *mockStore) AddDependency(_ context.Context, dep *model.Dependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deps {
		if d.TaskID == dep.TaskID && d.DependsOnID == dep.DependsOnID {
			return store.ErrDuplicate
		}
	}
	c := *dep
	m.deps = append(m.deps, &c)
	return nil
}

func (m *mockStore) RemoveDependency(_ context.Context, taskID, dependsOnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.deps)
	m.deps = slices.DeleteFunc(m.deps, func(d *model.Dependency) bool {
		return d.TaskID == taskID && d.DependsOnID == dependsOnID
	})
	if len(m.deps) == n {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockStore) filterDeps(keep func(*model.Dependency) bool) []*model.Dependency {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Dependency
	for _, d := range m.deps {
		if keep(d) {
			c := *d
			out = append(out, &c)
		}
	}
	return out
}

func (m *mockStore) GetDependencies(_ context.Context, taskID string) ([]*model.Dependency, error) {
	return m.filterDeps(func(d *model.Dependency) bool { return d.TaskID == taskID }), nil
}

func (m *mockStore) GetDependents(_ context.Context, taskID string) ([]*model.Dependency, error) {
	return m.filterDeps(func(d *model.Dependency) bool { return d.DependsOnID == taskID }), nil
}

func (m *mockStore) ListDependencies(_ context.Context) ([]*model.Dependency, error) {
	return m.filterDeps(func(*model.Dependency) bool { return true }), nil
}

func (m *mockStore) LockGraph(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockCalls++
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEventID++
	event.ID = m.nextEventID
	event.CreatedAt = time.Now().UTC()
	c := *event
	m.events = append(m.events, &c)
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, taskID string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for _, e := range m.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

// topics returns the recorded event topics in order.
func (m *mockStore) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Topic
	}
	return out
}

func (m *mockStore) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	tasks, _, _ := m.ListTasks(ctx, model.TaskFilter{Limit: limit})
	in := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		in[t.ID] = true
	}
	deps, _ := m.ListDependencies(ctx)
	edges := []*model.GraphEdge{}
	for _, d := range deps {
		if in[d.TaskID] && in[d.DependsOnID] {
			edges = append(edges, &model.GraphEdge{Source: d.TaskID, Target: d.DependsOnID})
		}
	}
	stats, _ := m.GetStats(ctx)
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return &model.GraphResponse{Nodes: tasks, Edges: edges, Stats: stats}, nil
}

func (m *mockStore) GetStats(_ context.Context) (*model.GraphStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.GraphStats{}
	for _, t := range m.tasks {
		switch t.Status {
		case model.StatusPending:
			stats.TotalPending++
		case model.StatusInProgress:
			stats.TotalInProgress++
		case model.StatusBlocked:
			stats.TotalBlocked++
		case model.StatusCompleted:
			stats.TotalCompleted++
		}
	}
	return stats, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	savedTasks := make(map[string]*model.Task, len(m.tasks))
	for id, t := range m.tasks {
		c := *t
		savedTasks[id] = &c
	}
	savedDeps := slices.Clone(m.deps)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.tasks = savedTasks
		m.deps = savedDeps
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockStore) Close() error { return nil }

// seed inserts tasks with the given statuses, created one millisecond
// apart so listing order is stable.
func (m *mockStore) seed(statuses map[string]model.Status, order ...string) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range order {
		at := base.Add(time.Duration(i) * time.Millisecond)
		m.tasks[id] = &model.Task{ID: id, Title: "Task " + id, Status: statuses[id], CreatedAt: at, UpdatedAt: at}
	}
}

// link inserts an edge directly, bypassing validation.
func (m *mockStore) link(taskID, dependsOnID string) {
	m.deps = append(m.deps, &model.Dependency{TaskID: taskID, DependsOnID: dependsOnID})
}

func (m *mockStore) status(id string) model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return t.Status
	}
	return ""
}

var errInjected = errors.New("injected failure")
