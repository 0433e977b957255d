package fdmqtt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnAckReturnCodeString(t *testing.T) {
	tests := []struct {
		code ConnAckReturnCode
		want string
	}{
		{ConnAckAccepted, "accepted"},
		{ConnAckRefusedProtocolVersion, "refused: unacceptable protocol version"},
		{ConnAckRefusedIdentifier, "refused: identifier rejected"},
		{ConnAckRefusedServerUnavail, "refused: server unavailable"},
		{ConnAckRefusedBadCredentials, "refused: bad username or password"},
		{ConnAckRefusedNotAuthorized, "refused: not authorized"},
		{ConnAckReturnCode(99), "refused: unknown reason"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.String())
	}
}

func TestConnAckEncodeDecodeRoundTrip(t *testing.T) {
	for _, code := range []ConnAckReturnCode{
		ConnAckAccepted,
		ConnAckRefusedProtocolVersion,
		ConnAckRefusedIdentifier,
		ConnAckRefusedServerUnavail,
		ConnAckRefusedBadCredentials,
		ConnAckRefusedNotAuthorized,
	} {
		msg := &ConnAckMessage{ReturnCode: code}

		var buf bytes.Buffer
		n, err := msg.Encode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, int(msg.encodedLen()), n)
		assert.Equal(t, byte(0), buf.Bytes()[0], "reserved byte must be zero")

		got, err := DecodeConnAck(&buf)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
		assert.Equal(t, CONNACK, got.Type())
	}
}

func TestDecodeConnAckTruncated(t *testing.T) {
	_, err := DecodeConnAck(bytes.NewReader([]byte{0}))
	assert.Error(t, err)
}
