package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/taskdeps/internal/rpc"
)

// TaskServiceServer is the server API for taskdeps.v1.TaskService.
type TaskServiceServer interface {
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddDependency(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveDependency(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDependencies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDependents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DetectCycle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetGraph(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ TaskServiceServer = (*TasksServer)(nil)

type structMethod func(TaskServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary adapts a Struct-in, Struct-out method to a grpc.MethodHandler.
func unary(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TaskServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rpc.FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TaskServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// taskServiceDesc describes taskdeps.v1.TaskService for grpc.Server.
var taskServiceDesc = grpc.ServiceDesc{
	ServiceName: rpc.ServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(rpc.MethodCreateTask, TaskServiceServer.CreateTask),
		unary(rpc.MethodGetTask, TaskServiceServer.GetTask),
		unary(rpc.MethodListTasks, TaskServiceServer.ListTasks),
		unary(rpc.MethodUpdateTask, TaskServiceServer.UpdateTask),
		unary(rpc.MethodDeleteTask, TaskServiceServer.DeleteTask),
		unary(rpc.MethodAddDependency, TaskServiceServer.AddDependency),
		unary(rpc.MethodRemoveDependency, TaskServiceServer.RemoveDependency),
		unary(rpc.MethodListDependencies, TaskServiceServer.ListDependencies),
		unary(rpc.MethodListDependents, TaskServiceServer.ListDependents),
		unary(rpc.MethodDetectCycle, TaskServiceServer.DetectCycle),
		unary(rpc.MethodGetEvents, TaskServiceServer.GetEvents),
		unary(rpc.MethodGetGraph, TaskServiceServer.GetGraph),
		unary(rpc.MethodGetStats, TaskServiceServer.GetStats),
		unary(rpc.MethodHealth, TaskServiceServer.Health),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskdeps/v1/tasks.proto",
}

// RegisterTaskServiceServer registers srv on s.
func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&taskServiceDesc, srv)
}

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the TaskService, reflection, and returns the server ready to serve.
func NewGRPCServer(tasksServer *TasksServer) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
		),
	)

	RegisterTaskServiceServer(srv, tasksServer)
	reflection.Register(srv)

	return srv
}

// grpcError converts an operation error to a status error. A cycle carries
// its path as a Struct detail.
func (s *TasksServer) grpcError(err error) error {
	c := classify(err)
	if c.code == codes.Internal {
		s.logger.Error("rpc failed", "err", err)
	}
	st := status.New(c.code, c.message)
	if c.path != nil {
		detail, derr := rpc.Encode(map[string]any{"path": c.path})
		if derr == nil {
			if withPath, werr := st.WithDetails(detail); werr == nil {
				st = withPath
			}
		}
	}
	return st.Err()
}
