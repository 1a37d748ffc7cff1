// Package proto describes the safedrop.v1.Exchange gRPC service. Messages
// are protobuf well-known types; the service descriptor and client stub
// follow the layout protoc-gen-go-grpc produces.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "safedrop.v1.Exchange"

const (
	Exchange_Register_FullMethodName = "/safedrop.v1.Exchange/Register"
	Exchange_Login_FullMethodName    = "/safedrop.v1.Exchange/Login"
	Exchange_Users_FullMethodName    = "/safedrop.v1.Exchange/Users"
	Exchange_Send_FullMethodName     = "/safedrop.v1.Exchange/Send"
	Exchange_History_FullMethodName  = "/safedrop.v1.Exchange/History"
	Exchange_Download_FullMethodName = "/safedrop.v1.Exchange/Download"
	Exchange_Hide_FullMethodName     = "/safedrop.v1.Exchange/Hide"
)

// Metadata keys. Keys ending in -bin carry arbitrary UTF-8 text.
const (
	MetaReceiver      = "receiver"
	MetaText          = "text-bin"
	MetaFilename      = "filename-bin"
	MetaMaxDownloads  = "max-downloads"
	MetaExpirySeconds = "expiry-seconds"
	MetaRequestID     = "x-request-id"
)

// GoneMessage is the status message of a NotFound returned for a burned
// attachment.
const GoneMessage = "gone"

// ChunkSize is the payload size of a single BytesValue on Send and Download.
const ChunkSize = 32 * 1024

type ExchangeClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Users(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Send(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[wrapperspb.BytesValue, structpb.Struct], error)
	History(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Download(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error)
	Hide(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type exchangeClient struct {
	cc grpc.ClientConnInterface
}

func NewExchangeClient(cc grpc.ClientConnInterface) ExchangeClient {
	return &exchangeClient{cc}
}

func (c *exchangeClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Exchange_Register_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *exchangeClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, Exchange_Login_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *exchangeClient) Users(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, Exchange_Users_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *exchangeClient) Send(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[wrapperspb.BytesValue, structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &Exchange_ServiceDesc.Streams[0], Exchange_Send_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[wrapperspb.BytesValue, structpb.Struct]{ClientStream: stream}, nil
}

func (c *exchangeClient) History(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, Exchange_History_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *exchangeClient) Download(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error) {
	stream, err := c.cc.NewStream(ctx, &Exchange_ServiceDesc.Streams[1], Exchange_Download_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.Int64Value, wrapperspb.BytesValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *exchangeClient) Hide(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Exchange_Hide_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ExchangeServer is the server API for the Exchange service.
// Implementations must embed UnimplementedExchangeServer.
type ExchangeServer interface {
	Register(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Login(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Users(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Send(grpc.ClientStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error
	History(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Download(*wrapperspb.Int64Value, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error
	Hide(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
	mustEmbedUnimplementedExchangeServer()
}

func RegisterExchangeServer(s grpc.ServiceRegistrar, srv ExchangeServer) {
	s.RegisterService(&Exchange_ServiceDesc, srv)
}

func _Exchange_Register_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExchangeServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Exchange_Register_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExchangeServer).Register(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Exchange_Login_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExchangeServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Exchange_Login_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExchangeServer).Login(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Exchange_Users_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExchangeServer).Users(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Exchange_Users_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExchangeServer).Users(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Exchange_Send_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(ExchangeServer).Send(&grpc.GenericServerStream[wrapperspb.BytesValue, structpb.Struct]{ServerStream: stream})
}

func _Exchange_History_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExchangeServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Exchange_History_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExchangeServer).History(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Exchange_Download_Handler(srv any, stream grpc.ServerStream) error {
	m := new(wrapperspb.Int64Value)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ExchangeServer).Download(m, &grpc.GenericServerStream[wrapperspb.Int64Value, wrapperspb.BytesValue]{ServerStream: stream})
}

func _Exchange_Hide_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExchangeServer).Hide(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Exchange_Hide_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExchangeServer).Hide(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

var Exchange_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExchangeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: _Exchange_Register_Handler},
		{MethodName: "Login", Handler: _Exchange_Login_Handler},
		{MethodName: "Users", Handler: _Exchange_Users_Handler},
		{MethodName: "History", Handler: _Exchange_History_Handler},
		{MethodName: "Hide", Handler: _Exchange_Hide_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Send", Handler: _Exchange_Send_Handler, ClientStreams: true},
		{StreamName: "Download", Handler: _Exchange_Download_Handler, ServerStreams: true},
	},
	Metadata: "safedrop/v1/exchange.proto",
}
