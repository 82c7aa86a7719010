package model

import "time"

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusBlocked, StatusCompleted:
		return true
	}
	return false
}

// Statuses lists every known status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusBlocked, StatusCompleted}
}

// Task is the core work-item record.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Dependencies holds the IDs this task depends on. Populated by reads,
	// not stored in the tasks table.
	Dependencies []string `json:"dependencies"`
}
