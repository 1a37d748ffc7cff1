// Package storeclient speaks the Core Store wire protocol: it deposits
// attachment bytes in exchange for a capability token pair and redeems
// a token pair for the bytes, detecting when the object has been burned.
//
// Every operation uses a fresh TCP connection. The client never retries.
package storeclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/netx"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/wire"
)

var (
	// ErrStoreUnavailable covers dial failures, timeouts and resets.
	ErrStoreUnavailable = errors.New("core store unavailable")
	// ErrProtocolViolation means the store answered something unparseable.
	ErrProtocolViolation = errors.New("core store protocol violation")
	// ErrBurned means the object is exhausted, expired or unknown.
	ErrBurned = errors.New("object burned")
)

const (
	opDeposit = "deposit"
	opRedeem  = "redeem"

	// maxReplySize bounds the upload reply; a token pair is far shorter.
	maxReplySize = 1024
)

type Config struct {
	Address        string
	ConnectTimeout time.Duration
	// IdleTimeout is the longest the store may stay silent mid-transfer.
	IdleTimeout time.Duration
}

type Client struct {
	cfg    Config
	logger logging.Logger
	dial   func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error)
}

func New(cfg Config, l logging.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: l.With("module", "storeclient", "store", cfg.Address),
		dial:   netx.Dial,
	}
}

// Deposit streams body to the store under the given retention policy and
// returns the minted token pair.
func (c *Client) Deposit(ctx context.Context, ext string, body io.Reader, policy models.RetentionPolicy) (fileID, fileKey string, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, opDeposit, start, err) }()

	conn, stop, err := c.connect(ctx)
	if err != nil {
		return "", "", err
	}
	defer func() {
		stop()
		_ = conn.Close()
	}()

	header, _ := wire.UploadHeader{
		MaxDownloads:  policy.MaxDownloads,
		ExpirySeconds: policy.ExpirySeconds,
	}.MarshalBinary()

	prefix := make([]byte, 0, 1+wire.UploadHeaderSize+wire.TagSize)
	prefix = append(prefix, wire.OpUpload)
	prefix = append(prefix, header...)
	prefix = append(prefix, wire.Tag(ext)...)

	if _, err := conn.Write(prefix); err != nil {
		return "", "", c.unavailable(ctx, err)
	}

	src := &sourceReader{r: body}
	n, err := io.Copy(conn, src)
	storeBytesTotal.WithLabelValues("upload").Add(float64(n))
	if src.err != nil {
		// a FIN would let the store keep the truncated body
		_ = netx.Abort(conn)
		return "", "", fmt.Errorf("read attachment: %w", src.err)
	}
	if err != nil {
		return "", "", c.unavailable(ctx, err)
	}

	if err := conn.CloseWrite(); err != nil {
		return "", "", c.unavailable(ctx, err)
	}

	reply, err := io.ReadAll(io.LimitReader(conn, maxReplySize))
	if err != nil {
		return "", "", c.unavailable(ctx, err)
	}

	fileID, fileKey, err = wire.ParseTokenPair(string(reply))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}

	return fileID, fileKey, nil
}

// Redeem asks the store for the object. On success the returned reader
// yields the payload as it arrives; the caller must close it. A burned
// object yields ErrBurned before any payload byte is handed out.
func (c *Client) Redeem(ctx context.Context, fileID, fileKey string) (rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, opRedeem, start, err) }()

	conn, stop, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	release := func() {
		stop()
		_ = conn.Close()
	}

	if _, err := conn.Write(wire.DownloadRequest(fileID, fileKey)); err != nil {
		release()
		return nil, c.unavailable(ctx, err)
	}

	burned, err := readHeader(conn)
	if err != nil {
		release()
		return nil, c.unavailable(ctx, err)
	}
	if burned {
		release()
		return nil, ErrBurned
	}

	return &payload{conn: conn, release: release}, nil
}

// readHeader consumes the 8-byte reply header. A reply that ends early or
// starts with the burn sentinel means the object is gone; the sentinel is
// recognised as soon as it arrives, without waiting for the store to hang up.
func readHeader(r io.Reader) (burned bool, err error) {
	head := make([]byte, wire.DownloadHeaderSize)
	sentinel := []byte(wire.BurnSentinel)

	n := 0
	for n < len(head) {
		m, err := r.Read(head[n:])
		n += m
		if n >= len(sentinel) && bytes.HasPrefix(head[:n], sentinel) {
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
	return wire.IsBurned(head), nil
}

func (c *Client) connect(ctx context.Context) (*netx.IdleConn, func() bool, error) {
	raw, err := c.dial(ctx, c.cfg.Address, c.cfg.ConnectTimeout)
	if err != nil {
		return nil, nil, c.unavailable(ctx, err)
	}
	conn := netx.NewIdleConn(raw, c.cfg.IdleTimeout)
	return conn, netx.CloseOnCancel(ctx, conn), nil
}

func (c *Client) unavailable(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (c *Client) observe(ctx context.Context, op string, start time.Time, err error) {
	result := resultLabel(err)
	storeRequestsTotal.WithLabelValues(op, result).Inc()
	storeRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	switch result {
	case "protocol_violation":
		c.logger.Error(ctx, "core store protocol violation", "operation", op, "error", err)
	case "timeout":
		c.logger.Warn(ctx, "core store timed out", "operation", op, "error", err)
	case "unavailable":
		c.logger.Warn(ctx, "core store unreachable", "operation", op, "error", err)
	case "ok", "burned":
		c.logger.Debug(ctx, "core store call", "operation", op, "result", result)
	}
}

// sourceReader remembers read failures of the attachment source so they
// are not mistaken for store failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (c *sourceReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}

// payload streams the remainder of a download reply.
type payload struct {
	conn    net.Conn
	release func()
	closed  bool
}

func (p *payload) Read(b []byte) (int, error) {
	n, err := p.conn.Read(b)
	storeBytesTotal.WithLabelValues("download").Add(float64(n))
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return n, err
}

func (p *payload) Close() error {
	if !p.closed {
		p.closed = true
		p.release()
	}
	return nil
}
