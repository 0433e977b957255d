package fdmqtt

import (
	"errors"
	"io"
)

// ErrUnsupportedMessageType is returned by Codec.DecodeBody for any message
// type other than CONNECT and CONNACK; a new codec is added as another case
// of its dispatch switch.
var ErrUnsupportedMessageType = errors.New("fdmqtt: message type not implemented")

// Message is an MQTT control packet whose payload can be encoded to, or was
// decoded from, the bytes following a FixedHeader.
type Message interface {
	// Type returns the packet's message type.
	Type() MessageType

	// Encode writes the packet payload (not the fixed header) to w,
	// returning the number of bytes written.
	Encode(w io.Writer) (int, error)
}
