package fdmqtt

import (
	"bytes"
	"errors"

	"github.com/flightvars/fdmqtt/concurrent"
	"github.com/flightvars/fdmqtt/iobuf"
	"github.com/flightvars/fdmqtt/result"
	"github.com/flightvars/fdmqtt/transport"
)

// ErrSessionClosed names the condition of a session that has stopped
// looping. Session has no Stop method and no code path in this package
// returns this error: a failed cycle is logged by requestProcessed and the
// loop simply is not re-armed.
var ErrSessionClosed = errors.New("fdmqtt: session is closed")

// Handler processes a decoded request Message and produces the response
// Message to write back, asynchronously. A CONNECT handler, for instance,
// returns a future that resolves to the CONNACK to send.
type Handler func(Message) *concurrent.Future[Message]

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithDecodeOptions sets the leniency options used to decode incoming
// messages. The default is strict (DecodeOptions{}).
func WithDecodeOptions(opts DecodeOptions) SessionOption {
	return func(s *Session) { s.codec.DecodeOptions = opts }
}

// WithLogger sets the logger a session reports to. The default is a
// NoOpLogger.
func WithLogger(logger Logger) SessionOption {
	return func(s *Session) { s.log = logger }
}

// WithBufferPool sets the pool a session draws its output buffer from. The
// default allocates a fresh buffer for every response.
func WithBufferPool(pool *iobuf.Pool) SessionOption {
	return func(s *Session) { s.pool = pool }
}

// Session drives the per-connection request cycle: read a fixed header,
// read the message body it describes, decode it, hand it to the Handler,
// write the resulting response, and loop — for as long as the underlying
// connection stays open.
//
// Every step runs on the Session's Reactor via the Then/Next/Finally
// combinators, so a Session never needs its own locking: only one step of
// the cycle is ever runnable at a time, and the next request is never read
// until the previous response has been fully written.
type Session struct {
	conn    *transport.Connection
	reactor *concurrent.Reactor
	handler Handler
	codec   Codec
	log     Logger
	pool    *iobuf.Pool
}

// NewSession constructs a Session bound to conn, driven by reactor, invoking
// handler for every decoded request.
func NewSession(conn *transport.Connection, reactor *concurrent.Reactor, handler Handler, opts ...SessionOption) *Session {
	s := &Session{
		conn:    conn,
		reactor: reactor,
		handler: handler,
		log:     NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the session's read-decode-handle-encode-write loop. It
// returns immediately; the loop runs on the session's Reactor.
func (s *Session) Start() {
	s.log.Debug("session starting", LogFields{LogFieldConnectionID: s.conn.ID()})
	s.reactor.Execute(s.processRequest)
}

func (s *Session) outputBuffer() *iobuf.Buffer {
	if s.pool != nil {
		return s.pool.Get()
	}
	return iobuf.NewDefault()
}

func (s *Session) releaseOutputBuffer(buf *iobuf.Buffer) {
	if s.pool != nil {
		s.pool.Put(buf)
	}
}

// processRequest runs exactly one read-handle-write cycle, scheduling the
// next cycle once the response has been written successfully.
func (s *Session) processRequest() {
	s.log.Debug("expecting new request", LogFields{LogFieldConnectionID: s.conn.ID()})

	response := concurrent.Next(s.readRequest(), s.handler, s.reactor)
	written := concurrent.Next(response, s.writeResponse, s.reactor)

	_ = concurrent.Finally(written, s.requestProcessed, s.reactor)
}

// requestProcessed logs the outcome of one cycle and, on success, schedules
// the next one. A failure (read error, decode error, handler panic, write
// error) ends the session's loop without tearing down the connection —
// callers that want the socket closed on error do so from their handler or
// by wrapping the logger.
func (s *Session) requestProcessed(outcome result.Attempt[int]) {
	if outcome.IsFailure() {
		_, err := outcome.Get()
		s.log.Error("error processing request", LogFields{
			LogFieldConnectionID: s.conn.ID(),
			LogFieldError:        err.Error(),
		})
		return
	}
	s.log.Debug("request successfully processed", LogFields{LogFieldConnectionID: s.conn.ID()})
	s.reactor.Execute(s.processRequest)
}

// readRequest reads and decodes exactly one complete message from the
// connection: a fixed header, followed by the body it describes.
func (s *Session) readRequest() *concurrent.Future[Message] {
	return concurrent.Next(s.readHeader(), s.readMessageFromHeader, s.reactor)
}

// readHeader reads the fixed header, growing the read one byte at a time
// while the variable-length "remaining length" field keeps signaling more
// digits follow, up to its 4-byte maximum — the same incremental strategy
// the original session uses so it never over-reads into the message body.
func (s *Session) readHeader() *concurrent.Future[FixedHeader] {
	return concurrent.Next(s.conn.ReadExact(2), func(b []byte) *concurrent.Future[FixedHeader] {
		return s.decodeHeader(b)
	}, s.reactor)
}

func (s *Session) decodeHeader(read []byte) *concurrent.Future[FixedHeader] {
	lengthDigits := len(read) - 1 // bytes read so far after the type/flags byte
	lastByte := read[len(read)-1]
	moreBytesFollow := lastByte&0x80 != 0 && lengthDigits < 4

	if moreBytesFollow {
		s.log.Debug("fixed header incomplete, reading one more byte", LogFields{LogFieldConnectionID: s.conn.ID()})
		return concurrent.Next(s.conn.ReadExact(1), func(next []byte) *concurrent.Future[FixedHeader] {
			return s.decodeHeader(append(read, next...))
		}, s.reactor)
	}

	var header FixedHeader
	if _, err := header.Decode(bytes.NewReader(read)); err != nil {
		return concurrent.FailedFuture[FixedHeader](err)
	}
	s.log.Debug("fixed header read", LogFields{
		LogFieldConnectionID:    s.conn.ID(),
		LogFieldMessageType:     header.Type.String(),
		LogFieldRemainingLength: header.RemainingLength,
	})
	return concurrent.SucceededFuture(header)
}

// readMessageFromHeader reads exactly header.RemainingLength bytes and
// decodes them into the Message that fixed header describes.
func (s *Session) readMessageFromHeader(header FixedHeader) *concurrent.Future[Message] {
	body := iobuf.New(int(header.RemainingLength))
	return concurrent.Next(s.conn.ReadN(body, int(header.RemainingLength)), func(int) *concurrent.Future[Message] {
		return s.decodeContent(header, body)
	}, s.reactor)
}

func (s *Session) decodeContent(header FixedHeader, body *iobuf.Buffer) *concurrent.Future[Message] {
	body.Flip()
	msg, err := s.codec.DecodeBody(bytes.NewReader(body.Bytes()), header)
	if err != nil {
		return concurrent.FailedFuture[Message](err)
	}
	s.log.Debug("request message decoded", LogFields{
		LogFieldConnectionID: s.conn.ID(),
		LogFieldMessageType:  header.Type.String(),
	})
	return concurrent.SucceededFuture[Message](msg)
}

// writeResponse encodes response and writes it to the connection.
func (s *Session) writeResponse(response Message) *concurrent.Future[int] {
	s.log.Debug("replying with message", LogFields{
		LogFieldConnectionID: s.conn.ID(),
		LogFieldMessageType:  response.Type().String(),
	})

	out := s.outputBuffer()
	out.Reset(false)

	var frame bytes.Buffer
	if _, err := Encode(&frame, response); err != nil {
		s.releaseOutputBuffer(out)
		return concurrent.FailedFuture[int](err)
	}
	if err := out.SafeWrite(frame.Bytes()); err != nil {
		s.releaseOutputBuffer(out)
		return concurrent.FailedFuture[int](err)
	}
	out.Flip()

	written := s.conn.Write(out)
	return concurrent.Then(written, func(n int) int {
		s.releaseOutputBuffer(out)
		return n
	}, s.reactor)
}
