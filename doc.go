// Package fdmqtt implements an MQTT v3.1 broker library built around a
// future-based, single-threaded per-connection session.
//
// # Layers
//
// The package is layered bottom-up:
//
//   - result: Option, Either and Attempt, the total sum types everything
//     else is built from.
//   - concurrent: SharedState, Promise/Future and their composition
//     combinators (Then, Next, Finally), plus the Reactor that serializes
//     all asynchronous work onto a single goroutine.
//   - iobuf: a position/limit byte Buffer and a pool for reusing them.
//   - transport: a future-returning TCP Connection and Acceptor bound to a
//     Reactor.
//   - fdmqtt (this package): the CONNECT/CONNACK wire codec and the Session
//     state machine that drives read, decode, handle, encode and write for
//     the lifetime of a connection.
//
// # Protocol coverage
//
// Only CONNECT and CONNACK are implemented. MessageType names all fourteen
// MQTT v3.1 control packet types so the remaining ones have an obvious home
// once implemented; decoding any of them today returns
// ErrUnsupportedMessageType.
//
// # Usage
//
//	reactor := concurrent.NewReactor()
//	go reactor.Run()
//
//	acceptor, _ := transport.NewAcceptor(":1883", reactor)
//	concurrent.Then(acceptor.Accept(), func(conn *transport.Connection) any {
//	    session := fdmqtt.NewSession(conn, reactor, handler)
//	    session.Start()
//	    return nil
//	}, reactor)
package fdmqtt
