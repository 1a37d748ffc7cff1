package grpc

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/logging"
	pb "github.com/dmitrijs2005/safedrop/internal/proto"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ---- fakes ----

type fakeUsers struct {
	mu         sync.Mutex
	registered []string
	loginErr   error
}

func (f *fakeUsers) Register(_ context.Context, username, password string) (*models.User, error) {
	if username == "taken" {
		return nil, common.ErrorAlreadyExists
	}
	f.mu.Lock()
	f.registered = append(f.registered, username)
	f.mu.Unlock()
	return &models.User{ID: "1", UserName: username}, nil
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "tok-" + username, nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]string, error) {
	return []string{"alice", "bob"}, nil
}

// fakeGate accepts tokens of the form "tok-<name>".
type fakeGate struct{}

func (fakeGate) Authenticate(_ context.Context, token string) (models.Identity, error) {
	name, ok := strings.CutPrefix(token, "tok-")
	if !ok || name == "" {
		return "", common.ErrorUnauthorized
	}
	return models.Identity(name), nil
}

type sendCall struct {
	identity models.Identity
	req      services.SendRequest
	body     []byte
}

type fakeExchange struct {
	mu    sync.Mutex
	sends []sendCall

	downloadErr  error
	downloadBody []byte
	hideErr      error
}

func (f *fakeExchange) Send(_ context.Context, identity models.Identity, req services.SendRequest) (*models.Message, error) {
	call := sendCall{identity: identity, req: req}
	msg := &models.Message{ID: 1, Sender: identity, Receiver: req.Receiver, Text: req.Text, SentAt: time.Now()}

	if req.Attachment != nil {
		if err := req.Attachment.Policy.Validate(); err != nil {
			return nil, err
		}
		body, err := io.ReadAll(req.Attachment.Content)
		if err != nil {
			return nil, err
		}
		call.body = body
		msg.File = &models.FileRef{FileID: "ID", FileKey: "KEY", Filename: req.Attachment.Filename}
	}

	f.mu.Lock()
	f.sends = append(f.sends, call)
	f.mu.Unlock()
	return msg, nil
}

func (f *fakeExchange) recorded() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.sends...)
}

func (f *fakeExchange) History(_ context.Context, identity, contact models.Identity) ([]*models.Message, error) {
	return []*models.Message{
		{ID: 1, Sender: identity, Receiver: contact, Text: "hi"},
		{ID: 2, Sender: contact, Receiver: identity, File: &models.FileRef{FileID: common.BurnedFileID, Filename: "x.bin"}},
	}, nil
}

func (f *fakeExchange) Download(_ context.Context, identity models.Identity, id int64) (*services.Download, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &services.Download{Filename: "cat.png", Content: io.NopCloser(bytes.NewReader(f.downloadBody))}, nil
}

func (f *fakeExchange) Hide(context.Context, models.Identity, int64) error {
	return f.hideErr
}

// ---- harness ----

type harness struct {
	client   pb.ExchangeClient
	users    *fakeUsers
	exchange *fakeExchange
}

func startServer(t *testing.T, rl RateLimit, configure ...func(*harness)) *harness {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := &harness{users: &fakeUsers{}, exchange: &fakeExchange{}}
	for _, fn := range configure {
		fn(h)
	}
	s := NewGRPCServer("", logging.Nop{}, h.users, h.exchange, fakeGate{}, rl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn, err := grpc.NewClient(ln.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})

	h.client = pb.NewExchangeClient(conn)
	return h
}

func authed(user string, kv ...string) context.Context {
	md := metadata.Pairs(append([]string{common.AccessTokenHeaderName, "tok-" + user}, kv...)...)
	return metadata.NewOutgoingContext(context.Background(), md)
}

// ---- tests ----

func TestRegisterAndLogin(t *testing.T) {
	h := startServer(t, RateLimit{})
	ctx := context.Background()

	_, err := h.client.Register(ctx, pb.Credentials("alice", "pw"))
	require.NoError(t, err)
	h.users.mu.Lock()
	assert.Equal(t, []string{"alice"}, h.users.registered)
	h.users.mu.Unlock()

	_, err = h.client.Register(ctx, pb.Credentials("taken", "pw"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	tok, err := h.client.Login(ctx, pb.Credentials("alice", "pw"))
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", tok.GetValue())

	h = startServer(t, RateLimit{}, func(h *harness) { h.users.loginErr = common.ErrorUnauthorized })
	_, err = h.client.Login(ctx, pb.Credentials("alice", "bad"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestProtectedMethodsRequireToken(t *testing.T) {
	h := startServer(t, RateLimit{})

	_, err := h.client.Users(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.NewOutgoingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "garbage"))
	_, err = h.client.History(bad, wrapperspb.String("bob"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	stream, err := h.client.Download(context.Background(), wrapperspb.Int64(1))
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestUsers(t *testing.T) {
	h := startServer(t, RateLimit{})

	list, err := h.client.Users(authed("alice"), &emptypb.Empty{})
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 2)
	assert.Equal(t, "alice", list.GetValues()[0].GetStringValue())
}

func TestSend_StreamsAttachment(t *testing.T) {
	h := startServer(t, RateLimit{})

	ctx := authed("alice",
		pb.MetaReceiver, "bob",
		pb.MetaText, "résumé attached",
		pb.MetaFilename, "cv.pdf",
		pb.MetaMaxDownloads, "3",
	)
	stream, err := h.client.Send(ctx)
	require.NoError(t, err)

	body := bytes.Repeat([]byte("0123456789"), 10000)
	for off := 0; off < len(body); off += pb.ChunkSize {
		end := min(off+pb.ChunkSize, len(body))
		require.NoError(t, stream.Send(wrapperspb.Bytes(body[off:end])))
	}
	reply, err := stream.CloseAndRecv()
	require.NoError(t, err)

	msg, err := pb.MessageFromStruct(reply)
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "bob", msg.Receiver)
	assert.Equal(t, pb.FileActive, msg.FileState)
	assert.Equal(t, "cv.pdf", msg.Filename)

	sends := h.exchange.recorded()
	require.Len(t, sends, 1)
	call := sends[0]
	assert.Equal(t, models.Identity("alice"), call.identity)
	assert.Equal(t, "résumé attached", call.req.Text)
	assert.Equal(t, uint32(3), call.req.Attachment.Policy.MaxDownloads)
	assert.Equal(t, uint32(models.DefaultExpirySeconds), call.req.Attachment.Policy.ExpirySeconds)
	assert.Equal(t, body, call.body)
}

func TestSend_TextOnlyAndBadPolicy(t *testing.T) {
	h := startServer(t, RateLimit{})

	stream, err := h.client.Send(authed("alice", pb.MetaReceiver, "bob", pb.MetaText, "hi"))
	require.NoError(t, err)
	reply, err := stream.CloseAndRecv()
	require.NoError(t, err)
	msg, err := pb.MessageFromStruct(reply)
	require.NoError(t, err)
	assert.Equal(t, pb.FileNone, msg.FileState)

	for _, maxDl := range []string{"zero", "0"} {
		stream, err = h.client.Send(authed("alice",
			pb.MetaReceiver, "bob", pb.MetaFilename, "a.txt", pb.MetaMaxDownloads, maxDl))
		require.NoError(t, err)
		_, err = stream.CloseAndRecv()
		assert.Equal(t, codes.InvalidArgument, status.Code(err), maxDl)
	}
}

func TestHistory_ReportsFileState(t *testing.T) {
	h := startServer(t, RateLimit{})

	list, err := h.client.History(authed("alice"), wrapperspb.String("bob"))
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 2)

	first, err := pb.MessageFromStruct(list.GetValues()[0].GetStructValue())
	require.NoError(t, err)
	second, err := pb.MessageFromStruct(list.GetValues()[1].GetStructValue())
	require.NoError(t, err)

	assert.Equal(t, pb.FileNone, first.FileState)
	assert.Equal(t, pb.FileBurned, second.FileState)
	assert.Equal(t, "x.bin", second.Filename)
}

func TestDownload_StreamsPayloadAndFilename(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, 3*pb.ChunkSize+17)
	h := startServer(t, RateLimit{}, func(h *harness) { h.exchange.downloadBody = body })

	stream, err := h.client.Download(authed("bob"), wrapperspb.Int64(1))
	require.NoError(t, err)

	var got []byte
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, chunk.GetValue()...)
	}
	assert.Equal(t, body, got)

	header, err := stream.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"cat.png"}, header.Get(pb.MetaFilename))
}

func TestDownload_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		code    codes.Code
		message string
	}{
		{common.ErrorGone, codes.NotFound, pb.GoneMessage},
		{common.ErrorNotFound, codes.NotFound, "not found"},
		{common.ErrorForbidden, codes.PermissionDenied, "forbidden"},
		{common.ErrorService, codes.Unavailable, "core store unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := startServer(t, RateLimit{}, func(h *harness) { h.exchange.downloadErr = tt.err })

			stream, err := h.client.Download(authed("bob"), wrapperspb.Int64(1))
			require.NoError(t, err)
			_, err = stream.Recv()

			st := status.Convert(err)
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.message, st.Message())
		})
	}
}

func TestHide(t *testing.T) {
	h := startServer(t, RateLimit{})

	_, err := h.client.Hide(authed("alice"), wrapperspb.Int64(1))
	require.NoError(t, err)

	h = startServer(t, RateLimit{}, func(h *harness) { h.exchange.hideErr = common.ErrorForbidden })
	_, err = h.client.Hide(authed("alice"), wrapperspb.Int64(1))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestRateLimit_AppliesToPublicMethods(t *testing.T) {
	h := startServer(t, RateLimit{Rate: 0.001, Burst: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := h.client.Login(ctx, pb.Credentials("alice", "pw"))
		require.NoError(t, err)
	}
	_, err := h.client.Login(ctx, pb.Credentials("alice", "pw"))
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// Authenticated calls are not limited.
	for i := 0; i < 5; i++ {
		_, err := h.client.Users(authed("alice"), &emptypb.Empty{})
		require.NoError(t, err)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := startServer(t, RateLimit{})

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(authed("alice"), pb.MetaRequestID, "req-1")
	_, err := h.client.Users(ctx, &emptypb.Empty{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1"}, header.Get(pb.MetaRequestID))
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, &fakeUsers{}, &fakeExchange{}, fakeGate{}, RateLimit{})
	require.Error(t, s.Run(context.Background()))
}
