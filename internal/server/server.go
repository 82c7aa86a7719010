// Package server hosts the dependency graph engine behind HTTP and gRPC.
// Every graph mutation runs under one lock, inside one store transaction,
// against a snapshot loaded in that transaction.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alfredjeanlab/taskdeps/internal/events"
	"github.com/alfredjeanlab/taskdeps/internal/graph"
	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

var tracer = otel.Tracer("github.com/alfredjeanlab/taskdeps/internal/server")

// TasksServer implements the task and dependency operations shared by the
// HTTP and gRPC transports.
type TasksServer struct {
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	engine    *graph.Engine
	logger    *slog.Logger

	// graphMu serializes graph mutations within this process. LockGraph
	// does the same across processes sharing the database.
	graphMu sync.Mutex
}

// Option configures a TasksServer.
type Option func(*TasksServer)

// WithEngine replaces the default graph engine.
func WithEngine(e *graph.Engine) Option {
	return func(s *TasksServer) { s.engine = e }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *TasksServer) { s.logger = l }
}

// NewTasksServer returns a new TasksServer backed by the given store and publisher.
func NewTasksServer(s store.Store, p events.Publisher, opts ...Option) *TasksServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	srv := &TasksServer{
		store:     s,
		publisher: p,
		sseHub:    newSSEHub(),
		engine:    graph.NewEngine(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *TasksServer) recordAndPublish(ctx context.Context, topic, taskID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "task_id", taskID, "err", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:   topic,
		TaskID:  taskID,
		Actor:   actor,
		Payload: payload,
	}); err != nil {
		s.logger.Warn("failed to record event", "topic", topic, "task_id", taskID, "err", err)
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "task_id", taskID, "err", err)
	}
	s.sseHub.broadcast(topic, payload)
	eventsPublished.WithLabelValues(topic).Inc()
}

// publishChanges emits one status_changed event per derived change.
func (s *TasksServer) publishChanges(ctx context.Context, trigger, actor string, changes []model.StatusChange) {
	for _, c := range changes {
		s.recordAndPublish(ctx, events.TopicStatusChanged, c.TaskID, actor, events.StatusChanged{
			TaskID:  c.TaskID,
			From:    c.From,
			To:      c.To,
			Cause:   events.CausePropagation,
			Trigger: trigger,
		})
	}
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// graphOp is one mutation run against a locked, freshly loaded snapshot.
// It writes its own rows through tx and returns the status changes the
// engine derived; withGraph persists those.
type graphOp func(tx store.Store, g *graph.Snapshot) ([]model.StatusChange, error)

// withGraph runs op under the graph lock inside a transaction and persists
// the resulting status changes before commit.
func (s *TasksServer) withGraph(ctx context.Context, name, taskID string, op graphOp) ([]model.StatusChange, error) {
	ctx, span := tracer.Start(ctx, "graph."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	start := time.Now()
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	var changes []model.StatusChange
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.LockGraph(ctx); err != nil {
			return fmt.Errorf("lock graph: %w", err)
		}
		g, err := loadSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		changes, err = op(tx, g)
		if err != nil {
			return err
		}
		for _, c := range changes {
			if err := tx.SetTaskStatus(ctx, c.TaskID, c.To); err != nil {
				return fmt.Errorf("persist status of %s: %w", c.TaskID, err)
			}
			span.AddEvent("status_changed", trace.WithAttributes(
				attribute.String("task.id", c.TaskID),
				attribute.String("status.from", c.From.String()),
				attribute.String("status.to", c.To.String()),
			))
		}
		return nil
	})

	observeGraphOp(name, time.Since(start), len(changes), err)
	span.SetAttributes(attribute.Int("graph.changes", len(changes)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return changes, nil
}

// loadSnapshot reads every task and edge visible to db.
func loadSnapshot(ctx context.Context, db store.Store) (*graph.Snapshot, error) {
	tasks, _, err := db.ListTasks(ctx, model.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	edges, err := db.ListDependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	return graph.Load(tasks, edges)
}
