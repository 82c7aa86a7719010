// Package events defines the task event topics and the publishers that
// carry them to NATS.
package events

import (
	"context"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// TopicAll matches every task event on NATS and in the SSE hub.
const TopicAll = "tasks.>"

// Event topic constants
const (
	TopicTaskCreated       = "tasks.task.created"
	TopicTaskUpdated       = "tasks.task.updated"
	TopicTaskDeleted       = "tasks.task.deleted"
	TopicStatusChanged     = "tasks.task.status_changed"
	TopicDependencyAdded   = "tasks.dependency.added"
	TopicDependencyRemoved = "tasks.dependency.removed"
)

// Cause values for StatusChanged.
const (
	CauseDirect      = "direct"      // set by a client request
	CausePropagation = "propagation" // derived from dependency statuses
)

// Event types

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type TaskDeleted struct {
	TaskID string `json:"task_id"`
}

type StatusChanged struct {
	TaskID string       `json:"task_id"`
	From   model.Status `json:"from"`
	To     model.Status `json:"to"`
	Cause  string       `json:"cause"`
	// Trigger is the task whose change started the cascade, when Cause is
	// propagation.
	Trigger string `json:"trigger,omitempty"`
}

type DependencyAdded struct {
	Dependency *model.Dependency `json:"dependency"`
}

type DependencyRemoved struct {
	TaskID      string `json:"task_id"`
	DependsOnID string `json:"depends_on_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
