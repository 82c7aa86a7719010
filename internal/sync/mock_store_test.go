package sync

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	stdsync "sync"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// mockStore is a minimal in-memory store for sync tests. Only the read paths
// ExportJSONL uses do real work.
type mockStore struct {
	mu      stdsync.Mutex
	tasks   map[string]*model.Task
	deps    []*model.Dependency
	listErr error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{tasks: make(map[string]*model.Task)}
}

func (m *mockStore) addTask(id, title string, status model.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.tasks[id] = &model.Task{ID: id, Title: title, Status: status, CreatedAt: now, UpdatedAt: now}
}

func (m *mockStore) addDep(taskID, dependsOnID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps = append(m.deps, &model.Dependency{TaskID: taskID, DependsOnID: dependsOnID, CreatedAt: time.Now().UTC()})
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

// ListTasks returns copies in creation order.
func (m *mockStore) ListTasks(_ context.Context, _ model.TaskFilter) ([]*model.Task, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var result []*model.Task
	for _, t := range m.tasks {
		cp := *t
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, len(result), nil
}

func (m *mockStore) UpdateTask(context.Context, *model.Task) error { return nil }

func (m *mockStore) SetTaskStatus(context.Context, string, model.Status) error { return nil }

func (m *mockStore) DeleteTask(context.Context, string) error { return nil }

func (m *mockStore) AddDependency(_ context.Context, dep *model.Dependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps = append(m.deps, dep)
	return nil
}

func (m *mockStore) RemoveDependency(context.Context, string, string) error { return nil }

func (m *mockStore) GetDependencies(context.Context, string) ([]*model.Dependency, error) {
	return nil, errors.New("not used by export")
}

func (m *mockStore) GetDependents(context.Context, string) ([]*model.Dependency, error) {
	return nil, errors.New("not used by export")
}

func (m *mockStore) ListDependencies(context.Context) ([]*model.Dependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Dependency, len(m.deps))
	copy(out, m.deps)
	return out, nil
}

func (m *mockStore) LockGraph(context.Context) error { return nil }

func (m *mockStore) RecordEvent(context.Context, *model.Event) error { return nil }

func (m *mockStore) GetEvents(context.Context, string) ([]*model.Event, error) { return nil, nil }

func (m *mockStore) GetGraph(context.Context, int) (*model.GraphResponse, error) {
	return &model.GraphResponse{}, nil
}

func (m *mockStore) GetStats(context.Context) (*model.GraphStats, error) {
	return &model.GraphStats{}, nil
}

func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
