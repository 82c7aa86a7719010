package model

// GraphEdge represents a dependency relationship as a graph edge.
// Source is the dependent task, Target the task it depends on.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphStats holds aggregate task counts by status.
type GraphStats struct {
	TotalPending    int `json:"total_pending"`
	TotalInProgress int `json:"total_in_progress"`
	TotalBlocked    int `json:"total_blocked"`
	TotalCompleted  int `json:"total_completed"`
}

// Total returns the number of tasks across all statuses.
func (s *GraphStats) Total() int {
	return s.TotalPending + s.TotalInProgress + s.TotalBlocked + s.TotalCompleted
}

// GraphResponse is the response for the graph visualization endpoint.
type GraphResponse struct {
	Nodes []*Task      `json:"nodes"`
	Edges []*GraphEdge `json:"edges"`
	Stats *GraphStats  `json:"stats"`
}

// StatusChange records one status transition decided by the graph engine.
type StatusChange struct {
	TaskID string `json:"task_id"`
	From   Status `json:"from"`
	To     Status `json:"to"`
}
