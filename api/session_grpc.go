package api

import (
	"context"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Session service method names.
const (
	SessionNewRoomFullMethodName  = "/vinom.race.Session/NewRoom"
	SessionRoomInfoFullMethodName = "/vinom.race.Session/RoomInfo"
)

// SessionClient is the client API for the Session service. Requests and
// responses are google.protobuf.Struct messages.
type SessionClient interface {
	NewRoom(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RoomInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) SessionClient {
	return &sessionClient{cc}
}

func (c *sessionClient) NewRoom(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SessionNewRoomFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionClient) RoomInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SessionRoomInfoFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionServer is the server API for the Session service.
type SessionServer interface {
	NewRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RoomInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedSessionServer()
}

// UnimplementedSessionServer must be embedded by every SessionServer.
type UnimplementedSessionServer struct{}

func (UnimplementedSessionServer) NewRoom(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method NewRoom not implemented")
}

func (UnimplementedSessionServer) RoomInfo(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RoomInfo not implemented")
}

func (UnimplementedSessionServer) mustEmbedUnimplementedSessionServer() {}

func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func sessionNewRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).NewRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionNewRoomFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).NewRoom(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func sessionRoomInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).RoomInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionRoomInfoFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).RoomInfo(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionServiceDesc is the grpc.ServiceDesc for the Session service.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: "vinom.race.Session",
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NewRoom",
			Handler:    sessionNewRoomHandler,
		},
		{
			MethodName: "RoomInfo",
			Handler:    sessionRoomInfoHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "session.proto",
}
