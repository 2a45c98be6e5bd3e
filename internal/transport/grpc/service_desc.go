package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	CreateRoomMethod = "/" + ServiceName + "/CreateRoom"
	ListRoomsMethod  = "/" + ServiceName + "/ListRooms"
	GetRoomMethod    = "/" + ServiceName + "/GetRoom"
)

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoomServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRoom", Handler: createRoomHandler},
		{MethodName: "ListRooms", Handler: listRoomsHandler},
		{MethodName: "GetRoom", Handler: getRoomHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relay/v1/room.proto",
}

func createRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServiceServer).CreateRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CreateRoomMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoomServiceServer).CreateRoom(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listRoomsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServiceServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListRoomsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoomServiceServer).ListRooms(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServiceServer).GetRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetRoomMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoomServiceServer).GetRoom(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
