package corestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/netx"
	"github.com/dmitrijs2005/safedrop/internal/wire"
)

var errTooLarge = errors.New("object too large")

// Server speaks the Core Store wire protocol over TCP, one operation per
// connection.
type Server struct {
	address       string
	vault         *Vault
	idleTimeout   time.Duration
	maxObjectSize int64
	logger        logging.Logger

	wg sync.WaitGroup
}

func NewServer(address string, v *Vault, idle time.Duration, maxObjectSize int64, l logging.Logger) *Server {
	return &Server{
		address:       address,
		vault:         v,
		idleTimeout:   idle,
		maxObjectSize: maxObjectSize,
		logger:        l.With("module", "corestore_server"),
	}
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections until ctx is done, then waits for in-flight
// operations to finish.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping core store...")
		_ = listen.Close()
	}()

	s.logger.Info(ctx, "Starting core store", "address", listen.Addr().String())

	for {
		conn, err := listen.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, raw net.Conn) {
	defer raw.Close()
	stop := netx.CloseOnCancel(ctx, raw)
	defer stop()

	conn := netx.NewIdleConn(raw, s.idleTimeout)

	var op [1]byte
	if _, err := io.ReadFull(conn, op[:]); err != nil {
		return
	}

	switch op[0] {
	case wire.OpUpload:
		s.observe(ctx, "upload", s.upload(ctx, conn))
	case wire.OpDownload:
		s.observe(ctx, "download", s.download(ctx, conn))
	default:
		s.observe(ctx, "unknown", fmt.Errorf("unknown opcode 0x%02X", op[0]))
	}
}

// upload reads the whole body until the client half-closes. Malformed
// uploads are dropped without a reply.
func (s *Server) upload(ctx context.Context, conn *netx.IdleConn) error {
	h, err := wire.ReadUploadHeader(conn)
	if err != nil {
		return err
	}

	r := io.Reader(conn)
	if s.maxObjectSize > 0 {
		r = io.LimitReader(conn, s.maxObjectSize+1)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if s.maxObjectSize > 0 && int64(len(plaintext)) > s.maxObjectSize {
		return errTooLarge
	}
	// No reply: the gateway reads the hangup as a protocol violation.
	if len(plaintext) < wire.TagSize {
		return fmt.Errorf("upload shorter than tag: %d bytes", len(plaintext))
	}

	id, key, err := s.vault.Deposit(ctx, plaintext, h)
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "object stored", "file_id", id, "ext", wire.ParseTag(plaintext[:wire.TagSize]), "size", len(plaintext)-wire.TagSize)

	_, err = conn.Write(wire.EncodeTokenPair(id, key))
	return err
}

// download answers with the stored plaintext, or the burn sentinel.
func (s *Server) download(ctx context.Context, conn *netx.IdleConn) error {
	var req [wire.FileIDSize + wire.FileKeySize]byte
	if _, err := io.ReadFull(conn, req[:]); err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	fileID := string(req[:wire.FileIDSize])
	fileKey := string(req[wire.FileIDSize:])

	plaintext, err := s.vault.Redeem(ctx, fileID, fileKey)
	if errors.Is(err, ErrGone) {
		_, werr := conn.Write([]byte(wire.BurnSentinel))
		return errors.Join(err, werr)
	}
	if err != nil {
		return err
	}

	_, err = conn.Write(plaintext)
	return err
}

func (s *Server) observe(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
		connectionsTotal.WithLabelValues(op, "ok").Inc()
	case errors.Is(err, ErrGone):
		connectionsTotal.WithLabelValues(op, "gone").Inc()
		s.logger.Debug(ctx, "redeem refused", "op", op)
	default:
		connectionsTotal.WithLabelValues(op, "error").Inc()
		s.logger.Warn(ctx, "request failed", "op", op, "error", err)
	}
}
