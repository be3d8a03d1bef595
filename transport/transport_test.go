package transport

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type NetDialerTestSuite struct {
	suite.Suite

	listener net.Listener
	port     uint16
}

func TestNetDialerTestSuite(t *testing.T) {
	suite.Run(t, new(NetDialerTestSuite))
}

func (s *NetDialerTestSuite) SetupTest() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	s.listener = listener
	s.port = uint16(listener.Addr().(*net.TCPAddr).Port)
}

func (s *NetDialerTestSuite) TearDownTest() {
	s.listener.Close()
}

func (s *NetDialerTestSuite) TestDialPlaintext() {
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	d := NewNetDialer(discardLogger(), clock.New(), Options{})

	stream, err := d.Dial("127.0.0.1", s.port, false)
	s.Require().NoError(err)
	defer stream.Close()

	server := <-accepted
	defer server.Close()

	// The stream is a plain bidirectional byte pipe.
	_, err = stream.Write([]byte("ping"))
	s.Require().NoError(err)

	buf := make([]byte, 4)
	_, err = io.ReadFull(server, buf)
	s.Require().NoError(err)
	s.Equal([]byte("ping"), buf)

	_, err = server.Write([]byte("pong"))
	s.Require().NoError(err)

	_, err = io.ReadFull(stream, buf)
	s.Require().NoError(err)
	s.Equal([]byte("pong"), buf)
}

func (s *NetDialerTestSuite) TestDialRefused() {
	// Grab a port that is certainly closed.
	s.listener.Close()

	d := NewNetDialer(discardLogger(), clock.New(), Options{DialTimeout: time.Second})

	stream, err := d.Dial("127.0.0.1", s.port, false)
	s.ErrorIs(err, ErrConnection)
	s.Nil(stream)
}

func (s *NetDialerTestSuite) TestDialIOTimeout() {
	accepted := make(chan net.Conn, 1)
	go func() {
		// Accept but never write.
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	d := NewNetDialer(discardLogger(), clock.New(), Options{
		IOTimeout: 10 * time.Millisecond,
	})

	stream, err := d.Dial("127.0.0.1", s.port, false)
	s.Require().NoError(err)
	defer stream.Close()

	buf := make([]byte, 1)
	_, err = stream.Read(buf)

	var netErr net.Error
	s.Require().ErrorAs(err, &netErr)
	s.True(netErr.Timeout())

	if server := <-accepted; server != nil {
		server.Close()
	}
}

func TestDialUnresolvableHost(t *testing.T) {
	d := NewNetDialer(discardLogger(), clock.New(), Options{DialTimeout: time.Second})

	stream, err := d.Dial("host.invalid", 80, false)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Nil(t, stream)
}

func TestDeadlineConnUsesInjectedClock(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	// The mock clock sits at the epoch, so every computed deadline is far
	// in the past and the write must time out immediately. That only
	// happens if the deadline came from the injected clock.
	clk := clock.NewMock()
	dc := &deadlineConn{Conn: client, clock: clk, timeout: time.Minute}
	defer dc.Close()

	_, err := dc.Write([]byte("x"))

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}
