package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	pb "github.com/dmitrijs2005/safedrop/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type GRPCClient struct {
	endpointURL string
	callTimeout time.Duration
	conn        *grpc.ClientConn
	client      pb.ExchangeClient

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.token()), desc, cc, method, opts...)
}

// NewSafeDropClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults.
func NewSafeDropClient(endpointURL string, callTimeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, callTimeout: callTimeout}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewExchangeClient(conn)
	return nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, userName string, password []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.Register(ctx, pb.Credentials(userName, string(password))); err != nil {
		return s.mapError(err)
	}
	return nil
}

// Login stores the returned access token for subsequent calls.
func (s *GRPCClient) Login(ctx context.Context, userName string, password []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, pb.Credentials(userName, string(password)))
	if err != nil {
		return s.mapError(err)
	}

	s.mu.Lock()
	s.accessToken = resp.GetValue()
	s.mu.Unlock()
	return nil
}

func (s *GRPCClient) Logout() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *GRPCClient) Users(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Users(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}

	names := make([]string, 0, len(resp.GetValues()))
	for _, v := range resp.GetValues() {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

// Send posts a message to receiver. With att set, its content is streamed
// to the gateway; otherwise the stream is closed right away.
func (s *GRPCClient) Send(ctx context.Context, receiver, text string, att *Attachment) (*pb.Message, error) {
	kv := []string{pb.MetaReceiver, receiver}
	if text != "" {
		kv = append(kv, pb.MetaText, text)
	}
	if att != nil {
		kv = append(kv, pb.MetaFilename, att.Filename)
		if att.MaxDownloads > 0 {
			kv = append(kv, pb.MetaMaxDownloads, strconv.FormatUint(uint64(att.MaxDownloads), 10))
		}
		if att.ExpirySeconds > 0 {
			kv = append(kv, pb.MetaExpirySeconds, strconv.FormatUint(uint64(att.ExpirySeconds), 10))
		}
	}

	ctx, cancel := context.WithCancel(metadata.AppendToOutgoingContext(ctx, kv...))
	defer cancel()

	stream, err := s.client.Send(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}

	if att != nil {
		if err := sendChunks(stream, att.Content); err != nil {
			return nil, err
		}
	}

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.MessageFromStruct(resp)
}

// sendChunks copies r into the stream. A failed Send means the server
// already answered; the real status comes from CloseAndRecv.
func sendChunks(stream grpc.ClientStreamingClient[wrapperspb.BytesValue, structpb.Struct], r io.Reader) error {
	buf := make([]byte, pb.ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sendErr := stream.Send(wrapperspb.Bytes(chunk)); sendErr != nil {
				if errors.Is(sendErr, io.EOF) {
					return nil
				}
				return sendErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
	}
}

func (s *GRPCClient) History(ctx context.Context, contact string) ([]*pb.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.History(ctx, wrapperspb.String(contact))
	if err != nil {
		return nil, s.mapError(err)
	}

	msgs := make([]*pb.Message, 0, len(resp.GetValues()))
	for _, v := range resp.GetValues() {
		m, err := pb.MessageFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Download writes the attachment of message id to w and returns its
// filename. On error w may hold a partial payload.
func (s *GRPCClient) Download(ctx context.Context, id int64, w io.Writer) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.Download(ctx, wrapperspb.Int64(id))
	if err != nil {
		return "", s.mapError(err)
	}

	header, err := stream.Header()
	if err != nil {
		return "", s.mapError(err)
	}

	var filename string
	if v := header.Get(pb.MetaFilename); len(v) > 0 {
		filename = v[0]
	}

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return filename, s.mapError(err)
		}
		if _, err := w.Write(chunk.GetValue()); err != nil {
			return filename, err
		}
	}

	// trailers-only responses carry no header, only the status
	if filename == "" {
		return "", fmt.Errorf("%w: missing filename", ErrNotFound)
	}
	return filename, nil
}

func (s *GRPCClient) Hide(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.Hide(ctx, wrapperspb.Int64(id)); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		if st.Message() == pb.GoneMessage {
			return ErrGone
		}
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
