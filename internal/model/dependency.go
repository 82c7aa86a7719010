package model

import "time"

// Dependency is a directed edge: TaskID cannot be considered ready until
// DependsOnID resolves favorably. Edges are unique per ordered pair.
type Dependency struct {
	TaskID      string    `json:"task_id"`
	DependsOnID string    `json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}
