package model

// TaskFilter holds ordering and size criteria for listing tasks.
type TaskFilter struct {
	Sort  string `json:"sort,omitempty"` // e.g. "-updated_at", "title"; prefix "-" = descending
	Limit int    `json:"limit,omitempty"`
}
