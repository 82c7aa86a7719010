package client

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/rpc"
)

// GRPCClient implements TasksClient using the gRPC transport.
type GRPCClient struct {
	conn grpc.ClientConnInterface
	// closer is nil when the connection is owned by the caller.
	closer func() error
}

var _ TasksClient = (*GRPCClient)(nil)

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{conn: conn, closer: conn.Close}, nil
}

// NewGRPCClientFromConn wraps an existing connection. Close leaves it open.
func NewGRPCClientFromConn(conn grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{conn: conn}
}

func (c *GRPCClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// call encodes req, invokes method and decodes the reply into resp.
func (c *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	in, err := rpc.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, rpc.FullMethod(method), in, out); err != nil {
		return fromStatus(err)
	}
	if resp == nil {
		return nil
	}
	return rpc.Decode(out, resp)
}

// fromStatus converts a gRPC status into the *APIError both transports share.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	code := http.StatusInternalServerError
	switch st.Code() {
	case codes.InvalidArgument:
		code = http.StatusBadRequest
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.AlreadyExists:
		code = http.StatusConflict
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("rpc: %w", err)
	}
	return &APIError{StatusCode: code, Message: st.Message(), Path: rpc.CyclePath(st.Details())}
}

// --- Task CRUD ---

func (c *GRPCClient) CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error) {
	var resp struct {
		Task *model.Task `json:"task"`
	}
	if err := c.call(ctx, rpc.MethodCreateTask, req, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

func (c *GRPCClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var resp struct {
		Task *model.Task `json:"task"`
	}
	if err := c.call(ctx, rpc.MethodGetTask, map[string]string{"id": id}, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

func (c *GRPCClient) ListTasks(ctx context.Context) ([]*model.Task, error) {
	var resp struct {
		Tasks []*model.Task `json:"tasks"`
	}
	if err := c.call(ctx, rpc.MethodListTasks, map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *GRPCClient) UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*UpdateTaskResponse, error) {
	body := struct {
		ID string `json:"id"`
		*UpdateTaskRequest
	}{ID: id, UpdateTaskRequest: req}
	var resp UpdateTaskResponse
	if err := c.call(ctx, rpc.MethodUpdateTask, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) DeleteTask(ctx context.Context, id string) error {
	return c.call(ctx, rpc.MethodDeleteTask, map[string]string{"id": id}, nil)
}

// --- Dependencies ---

type edgeBody struct {
	TaskID      string `json:"task_id"`
	DependsOnID string `json:"depends_on_id"`
	CreatedBy   string `json:"created_by,omitempty"`
}

func (c *GRPCClient) AddDependency(ctx context.Context, req *AddDependencyRequest) (*AddDependencyResponse, error) {
	var resp AddDependencyResponse
	body := edgeBody{TaskID: req.TaskID, DependsOnID: req.DependsOnID, CreatedBy: req.CreatedBy}
	if err := c.call(ctx, rpc.MethodAddDependency, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	return c.call(ctx, rpc.MethodRemoveDependency, edgeBody{TaskID: taskID, DependsOnID: dependsOnID}, nil)
}

func (c *GRPCClient) GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	var resp struct {
		Dependencies []*model.Dependency `json:"dependencies"`
	}
	if err := c.call(ctx, rpc.MethodListDependencies, map[string]string{"id": taskID}, &resp); err != nil {
		return nil, err
	}
	return resp.Dependencies, nil
}

func (c *GRPCClient) GetDependents(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	var resp struct {
		Dependents []*model.Dependency `json:"dependents"`
	}
	if err := c.call(ctx, rpc.MethodListDependents, map[string]string{"id": taskID}, &resp); err != nil {
		return nil, err
	}
	return resp.Dependents, nil
}

func (c *GRPCClient) CheckCycle(ctx context.Context, taskID, dependsOnID string) (*CycleCheck, error) {
	var check CycleCheck
	if err := c.call(ctx, rpc.MethodDetectCycle, edgeBody{TaskID: taskID, DependsOnID: dependsOnID}, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// --- Events ---

func (c *GRPCClient) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.call(ctx, rpc.MethodGetEvents, map[string]string{"id": taskID}, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Graph ---

func (c *GRPCClient) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	var g model.GraphResponse
	if err := c.call(ctx, rpc.MethodGetGraph, map[string]int{"limit": limit}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *GRPCClient) GetStats(ctx context.Context) (*model.GraphStats, error) {
	var stats model.GraphStats
	if err := c.call(ctx, rpc.MethodGetStats, map[string]string{}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Health ---

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, rpc.MethodHealth, map[string]string{}, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
