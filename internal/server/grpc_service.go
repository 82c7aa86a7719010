package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/taskdeps/internal/rpc"
)

// taskRef addresses a single task.
type taskRef struct {
	ID    string `json:"id"`
	Actor string `json:"actor,omitempty"`
}

// edgeRef addresses a single dependency edge.
type edgeRef struct {
	TaskID      string `json:"task_id"`
	DependsOnID string `json:"depends_on_id"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// decodeRequest decodes req into v, mapping failures to InvalidArgument.
func decodeRequest(req *structpb.Struct, v any) error {
	if err := rpc.Decode(req, v); err != nil {
		return status.Error(codes.InvalidArgument, "invalid request: "+err.Error())
	}
	return nil
}

func (s *TasksServer) respond(v any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.grpcError(err)
	}
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func requireID(field, v string) error {
	if v == "" {
		return status.Error(codes.InvalidArgument, field+" is required")
	}
	return nil
}

// CreateTask takes the POST /v1/tasks body and returns {"task": ...}.
func (s *TasksServer) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createTaskInput
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	task, err := s.createTask(ctx, in)
	return s.respond(map[string]any{"task": task}, err)
}

func (s *TasksServer) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref taskRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	if err := requireID("id", ref.ID); err != nil {
		return nil, err
	}
	task, err := s.getTask(ctx, ref.ID)
	return s.respond(map[string]any{"task": task}, err)
}

func (s *TasksServer) ListTasks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	tasks, err := s.listTasks(ctx)
	return s.respond(map[string]any{"tasks": tasks, "total": len(tasks)}, err)
}

// UpdateTask takes {"id": ..., plus the PATCH body} and returns
// {"task": ..., "changes": [...]}.
func (s *TasksServer) UpdateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
		updateTaskInput
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	res, err := s.updateTask(ctx, in.ID, in.updateTaskInput)
	return s.respond(res, err)
}

func (s *TasksServer) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref taskRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	if err := requireID("id", ref.ID); err != nil {
		return nil, err
	}
	changes, err := s.deleteTask(ctx, ref.ID, ref.Actor)
	return s.respond(map[string]any{"changes": changes}, err)
}

// AddDependency returns the same body as POST /v1/tasks/{id}/dependencies.
func (s *TasksServer) AddDependency(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref edgeRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	if err := requireID("task_id", ref.TaskID); err != nil {
		return nil, err
	}
	res, err := s.addDependency(ctx, ref.TaskID, addDependencyInput{
		DependsOnID: ref.DependsOnID,
		CreatedBy:   ref.CreatedBy,
	})
	return s.respond(res, err)
}

func (s *TasksServer) RemoveDependency(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref edgeRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	if err := requireID("task_id", ref.TaskID); err != nil {
		return nil, err
	}
	changes, err := s.removeDependency(ctx, ref.TaskID, ref.DependsOnID, ref.CreatedBy)
	return s.respond(map[string]any{"changes": changes}, err)
}

func (s *TasksServer) ListDependencies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref taskRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	deps, err := s.getDependencies(ctx, ref.ID)
	return s.respond(map[string]any{"dependencies": deps}, err)
}

func (s *TasksServer) ListDependents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref taskRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	deps, err := s.getDependents(ctx, ref.ID)
	return s.respond(map[string]any{"dependents": deps}, err)
}

// DetectCycle takes {"task_id", "depends_on_id"} and returns
// {"cycle": bool, "path": [...]}.
func (s *TasksServer) DetectCycle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref edgeRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	res, err := s.detectCycle(ctx, ref.TaskID, ref.DependsOnID)
	return s.respond(res, err)
}

func (s *TasksServer) GetEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ref taskRef
	if err := decodeRequest(req, &ref); err != nil {
		return nil, err
	}
	evts, err := s.store.GetEvents(ctx, ref.ID)
	if evts == nil {
		return s.respond(map[string]any{"events": []any{}}, err)
	}
	return s.respond(map[string]any{"events": evts}, err)
}

func (s *TasksServer) GetGraph(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Limit int `json:"limit"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	if in.Limit <= 0 {
		in.Limit = defaultGraphLimit
	}
	g, err := s.store.GetGraph(ctx, in.Limit)
	return s.respond(g, err)
}

func (s *TasksServer) GetStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	stats, err := s.store.GetStats(ctx)
	return s.respond(stats, err)
}

func (s *TasksServer) Health(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.respond(map[string]string{"status": "ok"}, nil)
}
