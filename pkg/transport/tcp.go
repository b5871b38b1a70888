package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/aa-headunit/headunit-go/pkg/errs"
)

// TCPListener accepts projection connections on the well-known wireless
// port. Grounded on the teacher's server.go accept-loop shape, trimmed
// to the single-connection-at-a-time model pkg/app enforces (§2
// "at-most-one-session").
type TCPListener struct {
	ln net.Listener
}

// ListenTCP opens a TCP listener on addr (typically ":5000", §4.13).
func ListenTCP(addr string) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "transport:tcp", err)
	}
	return &TCPListener{ln: ln}, nil
}

// Addr returns the listener's bound address.
func (l *TCPListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept blocks until one connection arrives or ctx is cancelled. It
// returns a Transport plus a connection ID suitable for log correlation.
func (l *TCPListener) Accept(ctx context.Context) (Transport, string, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		conn, err := l.ln.Accept()
		resultCh <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, "", errs.Wrap(errs.Aborted, "transport:tcp", ctx.Err())
	case r := <-resultCh:
		if r.err != nil {
			return nil, "", errs.Wrap(errs.IO, "transport:tcp", r.err)
		}
		return newTCPTransport(r.conn), uuid.NewString(), nil
	}
}

// Close stops accepting new connections.
func (l *TCPListener) Close() error {
	return l.ln.Close()
}

// tcpTransport adapts a net.Conn to the Transport port.
type tcpTransport struct {
	conn net.Conn

	mu      sync.Mutex
	stopped bool
}

func newTCPTransport(conn net.Conn) *tcpTransport {
	return &tcpTransport{conn: conn}
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	n, err := t.conn.Read(p)
	return n, t.classify(err)
}

func (t *tcpTransport) Write(p []byte) (int, error) {
	n, err := t.conn.Write(p)
	return n, t.classify(err)
}

func (t *tcpTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	t.stopped = true
	return t.conn.Close()
}

func (t *tcpTransport) classify(err error) error {
	if err == nil {
		return nil
	}
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return errs.Wrap(errs.Aborted, "transport:tcp", err)
	}
	if errors.Is(err, net.ErrClosed) {
		return errs.Wrap(errs.Aborted, "transport:tcp", err)
	}
	return errs.Wrap(errs.IO, "transport:tcp", fmt.Errorf("%w", err))
}

var _ Transport = (*tcpTransport)(nil)
