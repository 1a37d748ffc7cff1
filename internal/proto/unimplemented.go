package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// UnimplementedExchangeServer must be embedded by ExchangeServer
// implementations to stay forward compatible.
type UnimplementedExchangeServer struct{}

func (UnimplementedExchangeServer) Register(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedExchangeServer) Login(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedExchangeServer) Users(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Users not implemented")
}
func (UnimplementedExchangeServer) Send(grpc.ClientStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error {
	return status.Error(codes.Unimplemented, "method Send not implemented")
}
func (UnimplementedExchangeServer) History(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method History not implemented")
}
func (UnimplementedExchangeServer) Download(*wrapperspb.Int64Value, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	return status.Error(codes.Unimplemented, "method Download not implemented")
}
func (UnimplementedExchangeServer) Hide(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Hide not implemented")
}
func (UnimplementedExchangeServer) mustEmbedUnimplementedExchangeServer() {}
