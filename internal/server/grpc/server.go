package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/safedrop/internal/logging"
	pb "github.com/dmitrijs2005/safedrop/internal/proto"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/services"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	ListUsers(ctx context.Context) ([]string, error)
}

type ExchangeService interface {
	Send(ctx context.Context, identity models.Identity, req services.SendRequest) (*models.Message, error)
	History(ctx context.Context, identity, contact models.Identity) ([]*models.Message, error)
	Download(ctx context.Context, identity models.Identity, id int64) (*services.Download, error)
	Hide(ctx context.Context, identity models.Identity, id int64) error
}

// Authenticator turns an access token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// RateLimit bounds Register and Login calls per peer. A zero Rate disables it.
type RateLimit struct {
	Rate  float64
	Burst int
}

type GRPCServer struct {
	pb.UnimplementedExchangeServer
	address  string
	users    UserService
	exchange ExchangeService
	gate     Authenticator
	limiter  *peerLimiter
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us UserService, es ExchangeService, gate Authenticator, rl RateLimit) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		exchange: es,
		gate:     gate,
		limiter:  newPeerLimiter(rate.Limit(rl.Rate), rl.Burst),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.rateLimitInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.loggingStreamInterceptor, s.accessTokenStreamInterceptor),
	)
	pb.RegisterExchangeServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
