package graph

// DetectCycle reports the loop that adding taskID -> dependsOnID would close,
// or nil if the edge is safe. The walk follows existing depends-on edges out
// of dependsOnID; reaching taskID means dependsOnID already depends on it.
//
// The returned path runs dependsOnID, ..., taskID, dependsOnID. A self edge
// yields [taskID, taskID] without walking.
func DetectCycle(g Graph, taskID, dependsOnID string) []string {
	if taskID == dependsOnID {
		return []string{taskID, taskID}
	}

	parent := map[string]string{}
	visited := map[string]bool{dependsOnID: true}
	stack := []string{dependsOnID}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == taskID {
			return cyclePath(parent, dependsOnID, taskID)
		}

		deps := g.DirectDependencies(cur)
		// Push in reverse so the lowest id is explored first.
		for i := len(deps) - 1; i >= 0; i-- {
			next := deps[i]
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			stack = append(stack, next)
		}
	}
	return nil
}

// WouldCreateCycle reports whether adding taskID -> dependsOnID closes a loop.
func WouldCreateCycle(g Graph, taskID, dependsOnID string) bool {
	return DetectCycle(g, taskID, dependsOnID) != nil
}

func cyclePath(parent map[string]string, from, to string) []string {
	var rev []string
	for n := to; n != from; n = parent[n] {
		rev = append(rev, n)
	}
	path := make([]string, 0, len(rev)+2)
	path = append(path, from)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return append(path, from)
}
