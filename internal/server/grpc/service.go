package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the realtime service. Its
// only method is
//
//	rpc Subscribe(google.protobuf.Empty) returns (stream google.protobuf.Struct);
//
// built from well-known types, so no generated code is needed.
const ServiceName = "codemong.realtime.Notifications"

const SubscribeMethod = "/" + ServiceName + "/Subscribe"

type NotificationsServer interface {
	Subscribe(*emptypb.Empty, SubscribeStream) error
}

// SubscribeStream is the server side of a Subscribe call.
type SubscribeStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type subscribeStream struct {
	grpc.ServerStream
}

func (s *subscribeStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(NotificationsServer).Subscribe(m, &subscribeStream{stream})
}

var NotificationsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NotificationsServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "codemong/realtime.proto",
}

func RegisterNotificationsServer(s grpc.ServiceRegistrar, srv NotificationsServer) {
	s.RegisterService(&NotificationsServiceDesc, srv)
}

// NotificationsClient opens Subscribe streams over conn.
type NotificationsClient struct {
	conn grpc.ClientConnInterface
}

func NewNotificationsClient(conn grpc.ClientConnInterface) *NotificationsClient {
	return &NotificationsClient{conn: conn}
}

// SubscribeClient is the client side of a Subscribe call.
type SubscribeClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type subscribeClient struct {
	grpc.ClientStream
}

func (c *subscribeClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *NotificationsClient) Subscribe(ctx context.Context, opts ...grpc.CallOption) (SubscribeClient, error) {
	stream, err := c.conn.NewStream(ctx, &NotificationsServiceDesc.Streams[0], SubscribeMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &subscribeClient{stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
