package fdmqtt

import (
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightvars/fdmqtt/concurrent"
	"github.com/flightvars/fdmqtt/transport"
)

// acceptHandler replies to every CONNECT with an accepted CONNACK and fails
// anything else, the minimal handler this spec's Session is exercised with.
func acceptHandler(msg Message) *concurrent.Future[Message] {
	if _, ok := msg.(*ConnectMessage); !ok {
		return concurrent.FailedFuture[Message](ErrUnsupportedMessageType)
	}
	return concurrent.SucceededFuture[Message](&ConnAckMessage{ReturnCode: ConnAckAccepted})
}

func newTestSession(t *testing.T, handler Handler) (client net.Conn, reactor *concurrent.Reactor) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	reactor = concurrent.NewReactor()
	go reactor.Run()
	t.Cleanup(reactor.Stop)

	conn := transport.NewConnection(serverSide, reactor)
	session := NewSession(conn, reactor, handler)
	session.Start()

	return clientSide, reactor
}

func readConnAck(t *testing.T, r io.Reader) *ConnAckMessage {
	t.Helper()
	header, _, err := DecodeHeader(r)
	require.NoError(t, err)
	require.Equal(t, CONNACK, header.Type)

	codec := Codec{}
	msg, err := codec.DecodeBody(io.LimitReader(r, int64(header.RemainingLength)), header)
	require.NoError(t, err)

	connAck, ok := msg.(*ConnAckMessage)
	require.True(t, ok)
	return connAck
}

func TestSessionAcceptsSingleConnect(t *testing.T) {
	client, _ := newTestSession(t, acceptHandler)
	defer client.Close()

	connect := &ConnectMessage{ClientID: "device-1", CleanSession: true, KeepAlive: 30}
	_, err := Encode(client, connect)
	require.NoError(t, err)

	connAck := readConnAck(t, client)
	assert.Equal(t, ConnAckAccepted, connAck.ReturnCode)
}

func TestSessionLoopsAcrossMultipleRequests(t *testing.T) {
	client, _ := newTestSession(t, acceptHandler)
	defer client.Close()

	for i := 0; i < 3; i++ {
		connect := &ConnectMessage{ClientID: "device-1", CleanSession: true, KeepAlive: 30}
		_, err := Encode(client, connect)
		require.NoError(t, err)

		connAck := readConnAck(t, client)
		assert.Equal(t, ConnAckAccepted, connAck.ReturnCode)
	}
}

func TestSessionHandlerFailureEndsLoopWithoutClosingConnection(t *testing.T) {
	client, _ := newTestSession(t, acceptHandler)
	defer client.Close()

	// A CONNACK is a well-formed fixed header + payload, but this handler
	// only understands CONNECT, so it fails and the session stops looping.
	connAck := &ConnAckMessage{ReturnCode: ConnAckAccepted}
	_, err := Encode(client, connAck)
	require.NoError(t, err)

	_ = client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 1)
	_, err = client.Read(buf)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded, "session should stop reading after a handler failure, not echo a response or close the connection")
}
