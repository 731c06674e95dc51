// Package proto describes the homestock.auth.v1.Maintenance gRPC service.
//
// Messages are protobuf well-known types, so the service needs no
// generated code:
//
//	service Maintenance {
//	  rpc Cleanup(google.protobuf.Empty) returns (google.protobuf.Int64Value);
//	  rpc Stats(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc Revoke(google.protobuf.StringValue) returns (google.protobuf.Empty);
//	}
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	MaintenanceServiceName = "homestock.auth.v1.Maintenance"

	MaintenanceCleanupFullMethodName = "/" + MaintenanceServiceName + "/Cleanup"
	MaintenanceStatsFullMethodName   = "/" + MaintenanceServiceName + "/Stats"
	MaintenanceRevokeFullMethodName  = "/" + MaintenanceServiceName + "/Revoke"
)

// MaintenanceServer is the server API for the Maintenance service.
type MaintenanceServer interface {
	Cleanup(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Revoke(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// RegisterMaintenanceServer registers srv on s.
func RegisterMaintenanceServer(s grpc.ServiceRegistrar, srv MaintenanceServer) {
	s.RegisterService(&MaintenanceServiceDesc, srv)
}

// MaintenanceServiceDesc is the grpc.ServiceDesc for the Maintenance service.
var MaintenanceServiceDesc = grpc.ServiceDesc{
	ServiceName: MaintenanceServiceName,
	HandlerType: (*MaintenanceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Cleanup", Handler: cleanupHandler},
		{MethodName: "Stats", Handler: statsHandler},
		{MethodName: "Revoke", Handler: revokeHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func cleanupHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServer).Cleanup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MaintenanceCleanupFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServer).Cleanup(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MaintenanceStatsFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServer).Stats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func revokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServer).Revoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MaintenanceRevokeFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServer).Revoke(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// MaintenanceClient is the client API for the Maintenance service.
type MaintenanceClient struct {
	cc grpc.ClientConnInterface
}

func NewMaintenanceClient(cc grpc.ClientConnInterface) *MaintenanceClient {
	return &MaintenanceClient{cc: cc}
}

func (c *MaintenanceClient) Cleanup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, MaintenanceCleanupFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MaintenanceClient) Stats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MaintenanceStatsFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MaintenanceClient) Revoke(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MaintenanceRevokeFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
