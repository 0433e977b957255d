package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/flightvars/fdmqtt/concurrent"
)

// ErrResolveError wraps every error returned while resolving a host name to
// addresses.
var ErrResolveError = errors.New("transport: address resolution failed")

// ErrConnectError wraps every error returned while dialing a resolved
// address.
var ErrConnectError = errors.New("transport: connect failed")

// Resolve looks up the addresses for host asynchronously, the counterpart of
// the source resolver's async_resolve. It runs on a background goroutine and
// posts its result back onto reactor.
func Resolve(reactor *concurrent.Reactor, host string) *concurrent.Future[[]net.IPAddr] {
	p := concurrent.NewPromise[[]net.IPAddr]()
	f, _ := p.GetFuture()
	go func() {
		addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
		reactor.Execute(func() {
			if err != nil {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrResolveError, err))
				return
			}
			_ = p.SetSuccess(addrs)
		})
	}()
	return f
}

// Connect resolves host and dials the first result on port, composing the
// two steps into a single Future[*Connection] — the counterpart of the
// source's tcp_connect(host, port). A resolution failure surfaces as
// ErrResolveError; a dial failure against an address that did resolve
// surfaces as ErrConnectError.
func Connect(reactor *concurrent.Reactor, host, port string) *concurrent.Future[*Connection] {
	return concurrent.Next(Resolve(reactor, host), func([]net.IPAddr) *concurrent.Future[*Connection] {
		return dial(reactor, net.JoinHostPort(host, port))
	}, reactor)
}

func dial(reactor *concurrent.Reactor, address string) *concurrent.Future[*Connection] {
	p := concurrent.NewPromise[*Connection]()
	f, _ := p.GetFuture()
	go func() {
		conn, err := net.Dial("tcp", address)
		reactor.Execute(func() {
			if err != nil {
				_ = p.SetFailure(fmt.Errorf("%w: %w", ErrConnectError, err))
				return
			}
			_ = p.SetSuccess(NewConnection(conn, reactor))
		})
	}()
	return f
}
