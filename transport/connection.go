// Package transport provides future-returning asynchronous TCP connection
// and acceptor types bound to a concurrent.Reactor, translating blocking
// net.Conn/net.Listener calls (each run on their own background goroutine)
// into concurrent.Future completions posted back onto the reactor.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/flightvars/fdmqtt/concurrent"
	"github.com/flightvars/fdmqtt/iobuf"
)

// ErrClosed names the condition of a closed connection. No Connection
// method returns it: I/O on a closed connection fails with ErrReadError or
// ErrWriteError wrapping the underlying net error.
var ErrClosed = errors.New("transport: connection is closed")

// ErrReadError wraps every I/O error a Connection read encounters, letting
// callers distinguish a read failure from a write or accept failure via
// errors.Is without inspecting the underlying net error.
var ErrReadError = errors.New("transport: read failed")

// ErrWriteError wraps every I/O error a Connection write encounters.
var ErrWriteError = errors.New("transport: write failed")

// Connection is an asynchronous, future-returning wrapper over a net.Conn.
// Every Read and Write is a single, whole operation performed on a
// background goroutine; its future is fulfilled by posting back onto the
// owning reactor, so callers observe I/O completion serialized with the
// rest of their reactor-bound work.
type Connection struct {
	id      string
	conn    net.Conn
	reactor *concurrent.Reactor
}

// NewConnection wraps conn for asynchronous use on reactor. Each connection
// is tagged with a random identifier for correlation in logs.
func NewConnection(conn net.Conn, reactor *concurrent.Reactor) *Connection {
	return &Connection{id: uuid.NewString(), conn: conn, reactor: reactor}
}

// ID returns the connection's correlation identifier.
func (c *Connection) ID() string { return c.id }

// RemoteAddr returns the address of the remote end of the connection.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close closes the underlying connection.
func (c *Connection) Close() error { return c.conn.Close() }

// ReadSome fills buf with whatever is available up to buf.Remaining() bytes
// from a single recv. It returns a future that completes, on the reactor,
// with the number of bytes read.
func (c *Connection) ReadSome(buf *iobuf.Buffer) *concurrent.Future[int] {
	p := concurrent.NewPromise[int]()
	f, _ := p.GetFuture()
	go func() {
		scratch := make([]byte, buf.Remaining())
		n, err := c.conn.Read(scratch)
		c.reactor.Execute(func() {
			if err != nil && n == 0 {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrReadError, err))
				return
			}
			buf.Write(scratch[:n])
			_ = p.SetSuccess(n)
		})
	}()
	return f
}

// ReadN fills buf with exactly n bytes, issuing as many recv calls as
// needed, the counterpart of the source connection's read(buffer, nbytes)
// which asio's async_read guarantees reads exactly nbytes or fails trying.
func (c *Connection) ReadN(buf *iobuf.Buffer, n int) *concurrent.Future[int] {
	p := concurrent.NewPromise[int]()
	f, _ := p.GetFuture()
	go func() {
		scratch := make([]byte, n)
		read, err := io.ReadFull(c.conn, scratch)
		c.reactor.Execute(func() {
			if err != nil {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrReadError, err))
				return
			}
			buf.Write(scratch[:read])
			_ = p.SetSuccess(read)
		})
	}()
	return f
}

// ReadExact reads exactly n bytes and returns them as a freshly allocated
// slice, independent of any Buffer — the form the Session's fixed-header
// reader uses, since it needs to inspect individual bytes as they arrive
// rather than accumulate into a position/limit buffer.
func (c *Connection) ReadExact(n int) *concurrent.Future[[]byte] {
	p := concurrent.NewPromise[[]byte]()
	f, _ := p.GetFuture()
	go func() {
		scratch := make([]byte, n)
		_, err := io.ReadFull(c.conn, scratch)
		c.reactor.Execute(func() {
			if err != nil {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrReadError, err))
				return
			}
			_ = p.SetSuccess(scratch)
		})
	}()
	return f
}

// Write drains buf.Bytes() to the connection in full, issuing as many send
// calls as needed. It returns a future that completes, on the reactor, with
// the number of bytes written.
func (c *Connection) Write(buf *iobuf.Buffer) *concurrent.Future[int] {
	p := concurrent.NewPromise[int]()
	f, _ := p.GetFuture()
	payload := buf.Bytes()
	go func() {
		written := 0
		var writeErr error
		for written < len(payload) {
			n, err := c.conn.Write(payload[written:])
			written += n
			if err != nil {
				writeErr = err
				break
			}
		}
		c.reactor.Execute(func() {
			buf.Skip(written)
			if writeErr != nil {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrWriteError, writeErr))
				return
			}
			_ = p.SetSuccess(written)
		})
	}()
	return f
}
