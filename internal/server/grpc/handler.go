package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/safedrop/internal/common"
	pb "github.com/dmitrijs2005/safedrop/internal/proto"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	username, password := pb.CredentialsFromStruct(req)

	if _, err := s.users.Register(ctx, username, password); err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", username)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	username, password := pb.CredentialsFromStruct(req)

	token, err := s.users.Login(ctx, username, password)
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.String(token), nil
}

func (s *GRPCServer) Users(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	names, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(names))
	for _, n := range names {
		values = append(values, structpb.NewStringValue(n))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *GRPCServer) Send(stream grpc.ClientStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error {
	ctx := stream.Context()
	md, _ := metadata.FromIncomingContext(ctx)

	req := services.SendRequest{
		Receiver: models.Identity(firstMD(md, pb.MetaReceiver)),
		Text:     firstMD(md, pb.MetaText),
	}

	if filename := firstMD(md, pb.MetaFilename); filename != "" {
		policy, err := policyFromMetadata(md)
		if err != nil {
			return toStatus(err)
		}
		req.Attachment = &services.Attachment{
			Filename: filename,
			Content:  &chunkReader{recv: stream.Recv},
			Policy:   policy,
		}
	}

	msg, err := s.exchange.Send(ctx, identityFromContext(ctx), req)
	if err != nil {
		return toStatus(err)
	}

	return stream.SendAndClose(toMessage(msg).ToStruct())
}

func (s *GRPCServer) History(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	msgs, err := s.exchange.History(ctx, identityFromContext(ctx), models.Identity(req.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(msgs))
	for _, m := range msgs {
		values = append(values, structpb.NewStructValue(toMessage(m).ToStruct()))
	}
	return &structpb.ListValue{Values: values}, nil
}

// Download streams the redeemed attachment in ChunkSize pieces. The
// filename travels in the response header.
func (s *GRPCServer) Download(req *wrapperspb.Int64Value, stream grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	ctx := stream.Context()

	d, err := s.exchange.Download(ctx, identityFromContext(ctx), req.GetValue())
	if err != nil {
		return toStatus(err)
	}
	defer d.Content.Close()

	if err := stream.SendHeader(metadata.Pairs(pb.MetaFilename, d.Filename)); err != nil {
		return err
	}

	buf := make([]byte, pb.ChunkSize)
	for {
		n, err := d.Content.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := stream.Send(wrapperspb.Bytes(chunk)); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.logger.Warn(ctx, "download interrupted", "message_id", req.GetValue(), "error", err)
			return status.Error(codes.Unavailable, "core store stream interrupted")
		}
	}
}

func (s *GRPCServer) Hide(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := s.exchange.Hide(ctx, identityFromContext(ctx), req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// policyFromMetadata applies the transport defaults to absent fields.
func policyFromMetadata(md metadata.MD) (models.RetentionPolicy, error) {
	policy := models.DefaultRetentionPolicy()

	parse := func(key string, dst *uint32) error {
		raw := firstMD(md, key)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %s: %q", common.ErrorInvalidArgument, key, raw)
		}
		*dst = uint32(v)
		return nil
	}

	if err := parse(pb.MetaMaxDownloads, &policy.MaxDownloads); err != nil {
		return policy, err
	}
	if err := parse(pb.MetaExpirySeconds, &policy.ExpirySeconds); err != nil {
		return policy, err
	}
	return policy, nil
}

func toMessage(m *models.Message) *pb.Message {
	out := &pb.Message{
		ID:        m.ID,
		Sender:    string(m.Sender),
		Receiver:  string(m.Receiver),
		Text:      m.Text,
		SentAt:    m.SentAt,
		FileState: pb.FileNone,
	}
	if m.HasAttachment() {
		out.Filename = m.File.Filename
		out.FileState = pb.FileActive
		if m.File.Burned() {
			out.FileState = pb.FileBurned
		}
	}
	return out
}

// chunkReader exposes a stream of BytesValue messages as an io.Reader.
type chunkReader struct {
	recv func() (*wrapperspb.BytesValue, error)
	buf  []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		m, err := r.recv()
		if err != nil {
			return 0, err
		}
		r.buf = m.GetValue()
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
