// Package netx holds small TCP helpers for one-shot request/response
// exchanges: bounded dialing, idle deadlines and half-close.
package netx

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrHalfCloseUnsupported is returned by CloseWrite for connections that
// cannot shut down only their write side.
var ErrHalfCloseUnsupported = errors.New("connection does not support half-close")

// Dial connects to addr over TCP, giving up after timeout or when ctx ends.
func Dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", addr)
}

// CloseWrite shuts down the writing side of conn, signalling end-of-body to
// the peer while keeping the read side open for the response.
func CloseWrite(conn net.Conn) error {
	type halfCloser interface {
		CloseWrite() error
	}
	hc, ok := conn.(halfCloser)
	if !ok {
		return ErrHalfCloseUnsupported
	}
	return hc.CloseWrite()
}

// CloseOnCancel aborts conn as soon as ctx is done, which unblocks any
// pending Read or Write. The returned stop function detaches the watcher;
// it reports false if the connection was already closed by it.
func CloseOnCancel(ctx context.Context, conn net.Conn) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = Abort(conn)
	})
}

// Abort closes conn with a reset instead of a FIN, so a peer reading until
// end of stream sees an error rather than a short but complete body.
func Abort(conn net.Conn) error {
	if w, ok := conn.(interface{ NetConn() net.Conn }); ok {
		conn = w.NetConn()
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetLinger(0)
	}
	return conn.Close()
}

// IdleConn refreshes the connection deadline before every Read and Write,
// so a transfer fails only when the peer stays silent for longer than idle.
// A zero idle disables deadlines.
type IdleConn struct {
	net.Conn
	idle time.Duration
}

func NewIdleConn(conn net.Conn, idle time.Duration) *IdleConn {
	return &IdleConn{Conn: conn, idle: idle}
}

func (c *IdleConn) Read(p []byte) (int, error) {
	if c.idle > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *IdleConn) Write(p []byte) (int, error) {
	if c.idle > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.idle)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}

// NetConn returns the wrapped connection.
func (c *IdleConn) NetConn() net.Conn {
	return c.Conn
}

// CloseWrite forwards to the wrapped connection.
func (c *IdleConn) CloseWrite() error {
	return CloseWrite(c.Conn)
}

// IsTimeout reports whether err is a network timeout.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
