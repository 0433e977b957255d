package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/flightvars/fdmqtt/concurrent"
)

// ErrAcceptError wraps every error returned by the underlying listener's
// Accept, so callers can distinguish an accept failure from a read or write
// failure via errors.Is.
var ErrAcceptError = errors.New("transport: accept failed")

// AcceptorOption configures an Acceptor at construction time.
type AcceptorOption func(*acceptorConfig)

type acceptorConfig struct {
	maxConnections int
	limiter        *rate.Limiter
}

// WithMaxConnections caps the number of simultaneously open connections
// accepted from the listener, via golang.org/x/net/netutil.LimitListener —
// the library-backed replacement for a hand-rolled open-connection counter.
func WithMaxConnections(n int) AcceptorOption {
	return func(c *acceptorConfig) { c.maxConnections = n }
}

// WithAcceptRateLimit bounds how fast new connections are accepted, via
// golang.org/x/time/rate, guarding against connection-storm accept loops.
func WithAcceptRateLimit(r rate.Limit, burst int) AcceptorOption {
	return func(c *acceptorConfig) { c.limiter = rate.NewLimiter(r, burst) }
}

// Acceptor is a future-returning wrapper over a net.Listener: each Accept
// call runs on a background goroutine and fulfills its future, on the
// reactor, with a *Connection bound to the same reactor.
type Acceptor struct {
	listener net.Listener
	reactor  *concurrent.Reactor
	limiter  *rate.Limiter
}

// NewAcceptor listens on address and wraps the resulting listener for
// asynchronous use on reactor.
func NewAcceptor(address string, reactor *concurrent.Reactor, opts ...AcceptorOption) (*Acceptor, error) {
	cfg := acceptorConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	if cfg.maxConnections > 0 {
		l = netutil.LimitListener(l, cfg.maxConnections)
	}

	return &Acceptor{listener: l, reactor: reactor, limiter: cfg.limiter}, nil
}

// Addr returns the address the acceptor is listening on.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Close stops accepting new connections.
func (a *Acceptor) Close() error { return a.listener.Close() }

// Accept waits for the next incoming connection. It returns a future that
// completes, on the reactor, with a *Connection wrapping the accepted
// socket.
func (a *Acceptor) Accept() *concurrent.Future[*Connection] {
	p := concurrent.NewPromise[*Connection]()
	f, _ := p.GetFuture()
	go func() {
		if a.limiter != nil {
			_ = a.limiter.Wait(context.Background())
		}
		conn, err := a.listener.Accept()
		a.reactor.Execute(func() {
			if err != nil {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrAcceptError, err))
				return
			}
			_ = p.SetSuccess(NewConnection(conn, a.reactor))
		})
	}()
	return f
}

// Serve runs the reactor and a self-resubmitting accept loop together,
// invoking onAccept for every accepted connection, until either the
// listener stops (Close, or an Accept error) or the reactor is stopped. It
// blocks until both finish and returns the first error either encountered.
//
// The accept loop and the reactor loop are two independent goroutines that
// must both be waited on and whose errors must both be observable through a
// single call — the textbook use for golang.org/x/sync/errgroup, replacing
// what would otherwise be a hand-rolled pair of channels and a select.
func (a *Acceptor) Serve(onAccept func(*Connection)) error {
	group := new(errgroup.Group)

	group.Go(func() error {
		a.reactor.Run()
		return nil
	})

	group.Go(func() error {
		defer a.reactor.Stop()
		for {
			conn, err := a.Accept().Get()
			if err != nil {
				return err
			}
			a.reactor.Execute(func() { onAccept(conn) })
		}
	})

	return group.Wait()
}
