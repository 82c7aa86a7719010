package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// countingEngine returns an engine whose resolver counts invocations.
func countingEngine() (*Engine, *int) {
	calls := 0
	return NewEngine(func(cur model.Status, deps []model.Status) model.Status {
		calls++
		return Resolve(cur, deps)
	}), &calls
}

func statusOf(t *testing.T, g Graph, id string) model.Status {
	t.Helper()
	st, err := g.Status(id)
	require.NoError(t, err)
	return st
}

func changedIDs(changes []model.StatusChange) []string {
	ids := make([]string, len(changes))
	for i, c := range changes {
		ids[i] = c.TaskID
	}
	return ids
}

func diamond(t *testing.T) *Snapshot {
	t.Helper()
	return newGraph(t, []string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}})
}

func TestPropagate_Diamond(t *testing.T) {
	g := diamond(t)
	eng, calls := countingEngine()

	require.NoError(t, g.SetStatus("D", completed))
	changes, err := eng.OnStatusChanged(g, "D")
	require.NoError(t, err)

	assert.Equal(t, inProgress, statusOf(t, g, "B"))
	assert.Equal(t, inProgress, statusOf(t, g, "C"))
	// B and C are in progress, not completed, so A stays pending.
	assert.Equal(t, pending, statusOf(t, g, "A"))
	assert.ElementsMatch(t, []string{"B", "C"}, changedIDs(changes))
	assert.Equal(t, 3, *calls, "B, C and A are each resolved once")
}

func TestPropagate_DiamondReachesTopOnce(t *testing.T) {
	g := diamond(t)
	eng, calls := countingEngine()

	require.NoError(t, g.SetStatus("D", blocked))
	changes, err := eng.OnStatusChanged(g, "D")
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "A"}, changedIDs(changes))
	assert.Equal(t, blocked, statusOf(t, g, "A"))
	assert.Equal(t, 3, *calls)

	// Completing B and C directly readies A, again through a single resolve.
	*calls = 0
	require.NoError(t, g.SetStatus("D", completed))
	_, err = eng.OnStatusChanged(g, "D")
	require.NoError(t, err)
	require.NoError(t, g.SetStatus("B", completed))
	require.NoError(t, g.SetStatus("C", completed))
	changes, err = eng.OnStatusChanged(g, "C")
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{{TaskID: "A", From: pending, To: inProgress}}, changes)
}

func TestPropagate_Scenario(t *testing.T) {
	g := newGraph(t, []string{"T1", "T2", "T3"}, nil)

	changes, err := AddDependency(g, "T1", "T2")
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, pending, statusOf(t, g, "T1"))

	require.NoError(t, g.SetStatus("T2", completed))
	changes, err = OnStatusChanged(g, "T2")
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{{TaskID: "T1", From: pending, To: inProgress}}, changes)

	changes, err = AddDependency(g, "T3", "T1")
	require.NoError(t, err)
	assert.Empty(t, changes, "T1 is in progress, so T3 stays pending")

	require.NoError(t, g.SetStatus("T1", blocked))
	changes, err = OnStatusChanged(g, "T1")
	require.NoError(t, err)
	assert.Equal(t, []model.StatusChange{{TaskID: "T3", From: pending, To: blocked}}, changes)
	assert.Equal(t, completed, statusOf(t, g, "T2"))
}

func TestPropagate_Idempotent(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c", "d", "e"},
		[][2]string{{"b", "a"}, {"c", "b"}, {"d", "b"}, {"e", "c"}, {"e", "d"}})
	require.NoError(t, g.SetStatus("a", blocked))

	first, err := Propagate(g, "a")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	before := map[string]model.Status{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		before[id] = statusOf(t, g, id)
	}

	second, err := Propagate(g, "a")
	require.NoError(t, err)
	assert.Empty(t, second)
	for id, st := range before {
		assert.Equal(t, st, statusOf(t, g, id), id)
	}
}

func TestPropagate_BlockedPrecedence(t *testing.T) {
	g := newGraph(t, []string{"x", "done", "stuck"}, [][2]string{{"x", "done"}, {"x", "stuck"}})
	require.NoError(t, g.SetStatus("done", completed))
	_, err := OnStatusChanged(g, "done")
	require.NoError(t, err)
	assert.Equal(t, pending, statusOf(t, g, "x"))

	require.NoError(t, g.SetStatus("stuck", blocked))
	_, err = OnStatusChanged(g, "stuck")
	require.NoError(t, err)
	assert.Equal(t, blocked, statusOf(t, g, "x"))
}

func TestPropagate_StopsWhenNothingChanges(t *testing.T) {
	// a <- b <- c; b already pending, so a change on a that leaves b
	// pending must not touch c.
	g := newGraph(t, []string{"a", "b", "c"}, [][2]string{{"b", "a"}, {"c", "b"}})
	eng, calls := countingEngine()

	require.NoError(t, g.SetStatus("a", inProgress))
	changes, err := eng.Propagate(g, "a")
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, 1, *calls, "only b is resolved")
}

func TestPropagate_LongChain(t *testing.T) {
	ids := []string{"t0", "t1", "t2", "t3", "t4", "t5"}
	var edges [][2]string
	for i := 1; i < len(ids); i++ {
		edges = append(edges, [2]string{ids[i], ids[i-1]})
	}
	g := newGraph(t, ids, edges)

	require.NoError(t, g.SetStatus("t0", blocked))
	changes, err := Propagate(g, "t0")
	require.NoError(t, err)
	assert.Equal(t, ids[1:], changedIDs(changes))
	for _, id := range ids {
		assert.Equal(t, blocked, statusOf(t, g, id), id)
	}
}

func TestPropagate_UnknownRoot(t *testing.T) {
	_, err := Propagate(NewSnapshot(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropagate_CorruptCycle(t *testing.T) {
	// Written around the engine, as a bad import might.
	g := newGraph(t, []string{"a", "b", "c"}, [][2]string{{"b", "a"}, {"c", "b"}, {"b", "c"}})
	_, err := Propagate(g, "a")
	assert.ErrorIs(t, err, ErrCyclicGraph)

	g = newGraph(t, []string{"a", "b"}, [][2]string{{"b", "a"}, {"a", "b"}})
	_, err = Propagate(g, "a")
	assert.ErrorIs(t, err, ErrCyclicGraph)
}
