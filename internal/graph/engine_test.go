package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

func TestAddDependency_Errors(t *testing.T) {
	g := newGraph(t, []string{"T1", "T2", "T3"}, [][2]string{{"T1", "T2"}, {"T2", "T3"}})

	_, err := AddDependency(g, "T1", "T1")
	assert.ErrorIs(t, err, ErrSelfDependency)

	_, err = AddDependency(g, "T1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "nope")

	_, err = AddDependency(g, "ghost", "T1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = AddDependency(g, "T1", "T2")
	assert.ErrorIs(t, err, ErrDuplicateDependency)

	_, err = AddDependency(g, "T3", "T1")
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"T1", "T2", "T3", "T1"}, ce.Path)
	assert.Equal(t, "circular dependency detected: T1 -> T2 -> T3 -> T1", ce.Error())
	assert.False(t, g.HasEdge("T3", "T1"), "rejected edge must not be inserted")
}

func TestAddDependency_ResolvesSourceAndCascades(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c"}, [][2]string{{"c", "a"}})
	require.NoError(t, g.SetStatus("b", blocked))

	changes, err := AddDependency(g, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{
		{TaskID: "a", From: pending, To: blocked},
		{TaskID: "c", From: pending, To: blocked},
	}, changes)
	assert.True(t, g.HasEdge("a", "b"))
}

func TestAddDependency_OnCompletedDependency(t *testing.T) {
	g := newGraph(t, []string{"a", "b"}, nil)
	require.NoError(t, g.SetStatus("b", completed))

	changes, err := AddDependency(g, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{{TaskID: "a", From: pending, To: inProgress}}, changes)
}

func TestRemoveDependency(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c"}, nil)
	require.NoError(t, g.SetStatus("b", completed))
	require.NoError(t, g.SetStatus("c", blocked))
	_, err := AddDependency(g, "a", "b")
	require.NoError(t, err)
	_, err = AddDependency(g, "a", "c")
	require.NoError(t, err)
	require.Equal(t, blocked, statusOf(t, g, "a"))

	changes, err := RemoveDependency(g, "a", "c")
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{{TaskID: "a", From: blocked, To: inProgress}}, changes)

	// Last edge gone: the status is left where it is.
	changes, err = RemoveDependency(g, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, inProgress, statusOf(t, g, "a"))

	_, err = RemoveDependency(g, "a", "b")
	assert.ErrorIs(t, err, ErrDependencyNotFound)
}

func TestResettle_AfterTaskRemoval(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c", "d"},
		[][2]string{{"c", "a"}, {"c", "b"}, {"d", "c"}})
	require.NoError(t, g.SetStatus("a", completed))
	require.NoError(t, g.SetStatus("b", blocked))
	_, err := Propagate(g, "b")
	require.NoError(t, err)
	require.Equal(t, blocked, statusOf(t, g, "c"))
	require.Equal(t, blocked, statusOf(t, g, "d"))

	dependents := g.DirectDependents("b")
	g.RemoveTask("b")
	changes, err := Resettle(g, dependents)
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{
		{TaskID: "c", From: blocked, To: inProgress},
		{TaskID: "d", From: blocked, To: pending},
	}, changes)
}

func TestResettle_ResolvesSharedDependentOnce(t *testing.T) {
	// x and y both depended on the removed task; x also depends on y and z
	// sits below both.
	g := newGraph(t, []string{"gone", "done", "x", "y", "z"}, [][2]string{
		{"x", "gone"}, {"y", "gone"}, {"y", "done"}, {"x", "y"}, {"z", "x"}, {"z", "y"},
	})
	require.NoError(t, g.SetStatus("done", completed))
	require.NoError(t, g.SetStatus("gone", blocked))
	_, err := Propagate(g, "gone")
	require.NoError(t, err)
	for _, id := range []string{"x", "y", "z"} {
		require.Equal(t, blocked, statusOf(t, g, id), id)
	}

	dependents := g.DirectDependents("gone")
	g.RemoveTask("gone")
	eng, calls := countingEngine()
	changes, err := eng.Resettle(g, dependents)
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{
		{TaskID: "y", From: blocked, To: inProgress},
		{TaskID: "x", From: blocked, To: pending},
		{TaskID: "z", From: blocked, To: pending},
	}, changes)
	assert.Equal(t, 3, *calls, "x, y and z are each resolved once")
}

func TestLoad(t *testing.T) {
	tasks := []*model.Task{
		{ID: "a", Status: model.StatusCompleted},
		{ID: "b", Status: model.StatusPending},
	}
	g, err := Load(tasks, []*model.Dependency{{TaskID: "b", DependsOnID: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a"}, g.DirectDependencies("b"))
	assert.Equal(t, []string{"b"}, g.DirectDependents("a"))

	_, err = Load(tasks, []*model.Dependency{{TaskID: "b", DependsOnID: "zzz"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshot_RemoveTaskDropsEdges(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c"}, [][2]string{{"b", "a"}, {"c", "b"}})
	g.RemoveTask("b")
	assert.False(t, g.HasTask("b"))
	assert.Empty(t, g.DirectDependents("a"))
	assert.Empty(t, g.DirectDependencies("c"))
	_, err := g.Status("b")
	assert.ErrorIs(t, err, ErrNotFound)
}
