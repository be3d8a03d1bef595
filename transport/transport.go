// Package transport establishes the byte stream a request runs over:
// plain TCP, or TCP wrapped in a TLS client session.
package transport

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Stream is an ordered bidirectional byte stream. Both the plaintext and the
// TLS-wrapped variant satisfy it; callers never branch on which one they got.
type Stream interface {
	io.ReadWriteCloser
}

// Dialer establishes a Stream to host:port.
// If secure is true the stream carries a TLS client session.
type Dialer interface {
	Dial(host string, port uint16, secure bool) (Stream, error)
}

// ErrConnection covers every establishment failure the same way: DNS,
// refused, timeout, handshake. Callers only care that no stream exists.
var ErrConnection = errors.New("connection error")

type Options struct {
	// DialTimeout bounds the TCP connect (and TLS handshake, which runs
	// under the same socket deadline). Zero means no bound.
	DialTimeout time.Duration

	// IOTimeout is applied as a socket deadline before every read and
	// write on the established stream. Zero means no deadline.
	IOTimeout time.Duration
}

// NetDialer dials over the operating system network stack.
type NetDialer struct {
	opts   Options
	logger *slog.Logger
	clock  clock.Clock
}

var _ Dialer = (*NetDialer)(nil)

func NewNetDialer(logger *slog.Logger, clk clock.Clock, opts Options) *NetDialer {
	return &NetDialer{opts: opts, logger: logger, clock: clk}
}

func (d *NetDialer) Dial(host string, port uint16, secure bool) (Stream, error) {
	addr := net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))

	d.logger.Debug("dialing", "addr", addr, "secure", secure)

	conn, err := net.DialTimeout("tcp", addr, d.opts.DialTimeout)
	if err != nil {
		return nil, errors.WithMessagef(ErrConnection, "dialing %s: %v", addr, err)
	}

	if d.opts.IOTimeout > 0 {
		conn = &deadlineConn{Conn: conn, clock: d.clock, timeout: d.opts.IOTimeout}
	}

	if !secure {
		return conn, nil
	}

	tlsConn, err := wrapTLS(conn, host, d.clock, d.opts.DialTimeout)
	if err != nil {
		conn.Close()
		return nil, errors.WithMessagef(ErrConnection, "TLS handshake with %s: %v", addr, err)
	}

	return tlsConn, nil
}

// deadlineConn imposes a fresh socket deadline before each read and write.
// The deadline is computed from the injected clock so tests control time.
type deadlineConn struct {
	net.Conn

	clock   clock.Clock
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(c.clock.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(c.clock.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
