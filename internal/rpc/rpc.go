// Package rpc defines the taskdeps.v1.TaskService wire contract shared by
// the gRPC server and client. Requests and responses are
// google.protobuf.Struct values holding the same JSON shapes as the HTTP API.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "taskdeps.v1.TaskService"

// Method names.
const (
	MethodCreateTask       = "CreateTask"
	MethodGetTask          = "GetTask"
	MethodListTasks        = "ListTasks"
	MethodUpdateTask       = "UpdateTask"
	MethodDeleteTask       = "DeleteTask"
	MethodAddDependency    = "AddDependency"
	MethodRemoveDependency = "RemoveDependency"
	MethodListDependencies = "ListDependencies"
	MethodListDependents   = "ListDependents"
	MethodDetectCycle      = "DetectCycle"
	MethodGetEvents        = "GetEvents"
	MethodGetGraph         = "GetGraph"
	MethodGetStats         = "GetStats"
	MethodHealth           = "Health"
)

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Encode converts any JSON-serializable object into a Struct.
// v must marshal to a JSON object.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return s, nil
}

// Decode fills v from s using v's JSON tags. A nil s leaves v untouched.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// CyclePath extracts the loop carried by a cycle error detail, if any.
// The server attaches it as a Struct {"path": [...]}.
func CyclePath(details []any) []string {
	for _, d := range details {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		var body struct {
			Path []string `json:"path"`
		}
		if err := Decode(s, &body); err == nil && len(body.Path) > 0 {
			return body.Path
		}
	}
	return nil
}
