package fdmqtt

import (
	"errors"
	"io"
)

// Connect flag bit positions, MQTT v3.1 §3.1.
const (
	connectFlagCleanSession = 0x02
	connectFlagWill         = 0x04
	connectFlagWillRetain   = 0x20
	connectFlagPassword     = 0x40
	connectFlagUsername     = 0x80
)

const (
	connectProtocolName    = "MQIsdp"
	connectProtocolVersion = 3
)

// CONNECT errors.
var (
	ErrInvalidProtocolName    = errors.New("fdmqtt: invalid protocol name")
	ErrInvalidProtocolVersion = errors.New("fdmqtt: unsupported protocol version")
	ErrPasswordWithoutUsername = errors.New("fdmqtt: password flag set without username flag")
)

// ConnectWill describes the will message a client asked the broker to
// publish on its behalf if the connection drops uncleanly.
type ConnectWill struct {
	Topic   string
	Message string
	QoS     byte
	Retain  bool
}

// ConnectCredentials holds the optional username/password pair a client may
// present at connect time. Password is only meaningful when HasPassword is
// true — an empty password is a legitimate, distinct value from no password.
type ConnectCredentials struct {
	Username    string
	Password    string
	HasPassword bool
}

// ConnectMessage is the MQTT v3.1 CONNECT control packet.
type ConnectMessage struct {
	ClientID     string
	CleanSession bool
	KeepAlive    uint16
	Will         *ConnectWill
	Credentials  *ConnectCredentials
}

// Type returns CONNECT.
func (c *ConnectMessage) Type() MessageType { return CONNECT }

// DecodeOptions controls decode-time leniency for behavior the original
// broker exhibited as an unintentional side effect of its buffer-based
// reader rather than a deliberate protocol choice.
type DecodeOptions struct {
	// AllowFlagDowngrade reproduces the source library's quirk where a
	// truncated username/password field silently clears the corresponding
	// flag instead of failing the decode. Off by default: a reimplementation
	// should make this behavior opt-in, not the default.
	AllowFlagDowngrade bool
}

// DecodeConnect decodes a CONNECT payload (the bytes following the fixed
// header) from r.
func DecodeConnect(r io.Reader, opts DecodeOptions) (*ConnectMessage, error) {
	protoName, _, err := decodeString(r)
	if err != nil {
		return nil, err
	}
	if protoName != connectProtocolName {
		return nil, ErrInvalidProtocolName
	}

	protoVer, _, err := decodeUint8(r)
	if err != nil {
		return nil, err
	}
	if protoVer != connectProtocolVersion {
		return nil, ErrInvalidProtocolVersion
	}

	flags, _, err := decodeUint8(r)
	if err != nil {
		return nil, err
	}
	hasUsername := flags&connectFlagUsername != 0
	hasPassword := flags&connectFlagPassword != 0
	willRetain := flags&connectFlagWillRetain != 0
	willQoS := (flags >> 3) & 0x03
	hasWill := flags&connectFlagWill != 0
	cleanSession := flags&connectFlagCleanSession != 0

	keepAlive, _, err := decodeUint16(r)
	if err != nil {
		return nil, err
	}

	clientID, _, err := decodeString(r)
	if err != nil {
		return nil, err
	}

	msg := &ConnectMessage{
		ClientID:     clientID,
		CleanSession: cleanSession,
		KeepAlive:    keepAlive,
	}

	if hasWill {
		topic, _, err := decodeString(r)
		if err != nil {
			return nil, err
		}
		message, _, err := decodeString(r)
		if err != nil {
			return nil, err
		}
		msg.Will = &ConnectWill{Topic: topic, Message: message, QoS: willQoS, Retain: willRetain}
	}

	if !opts.AllowFlagDowngrade && hasPassword && !hasUsername {
		return nil, ErrPasswordWithoutUsername
	}

	var username, password string
	if hasUsername {
		username, _, err = decodeString(r)
		if err != nil {
			if opts.AllowFlagDowngrade {
				hasUsername = false
			} else {
				return nil, err
			}
		}
	}
	if hasPassword {
		password, _, err = decodeString(r)
		if err != nil {
			if opts.AllowFlagDowngrade {
				hasPassword = false
			} else {
				return nil, err
			}
		}
	}

	if hasPassword && !hasUsername {
		return nil, ErrPasswordWithoutUsername
	}

	if hasUsername {
		msg.Credentials = &ConnectCredentials{
			Username:    username,
			Password:    password,
			HasPassword: hasPassword,
		}
	}

	return msg, nil
}

// encodedLen returns the total size, in bytes, of the CONNECT payload.
func (c *ConnectMessage) encodedLen() uint32 {
	n := 2 + len(connectProtocolName) + 1 + 1 + 2 + stringSize(c.ClientID)
	if c.Will != nil {
		n += stringSize(c.Will.Topic) + stringSize(c.Will.Message)
	}
	if c.Credentials != nil {
		n += stringSize(c.Credentials.Username)
		if c.Credentials.HasPassword {
			n += stringSize(c.Credentials.Password)
		}
	}
	return uint32(n)
}

func (c *ConnectMessage) flags() byte {
	var b byte
	if c.Credentials != nil {
		b |= connectFlagUsername
		if c.Credentials.HasPassword {
			b |= connectFlagPassword
		}
	}
	if c.Will != nil {
		if c.Will.Retain {
			b |= connectFlagWillRetain
		}
		b |= (c.Will.QoS & 0x03) << 3
		b |= connectFlagWill
	}
	if c.CleanSession {
		b |= connectFlagCleanSession
	}
	return b
}

// Encode writes the CONNECT payload to w.
func (c *ConnectMessage) Encode(w io.Writer) (int, error) {
	total := 0

	n, err := encodeString(w, connectProtocolName)
	total += n
	if err != nil {
		return total, err
	}
	n, err = encodeUint8(w, connectProtocolVersion)
	total += n
	if err != nil {
		return total, err
	}
	n, err = encodeUint8(w, c.flags())
	total += n
	if err != nil {
		return total, err
	}
	n, err = encodeUint16(w, c.KeepAlive)
	total += n
	if err != nil {
		return total, err
	}
	n, err = encodeString(w, c.ClientID)
	total += n
	if err != nil {
		return total, err
	}

	if c.Will != nil {
		n, err = encodeString(w, c.Will.Topic)
		total += n
		if err != nil {
			return total, err
		}
		n, err = encodeString(w, c.Will.Message)
		total += n
		if err != nil {
			return total, err
		}
	}

	if c.Credentials != nil {
		n, err = encodeString(w, c.Credentials.Username)
		total += n
		if err != nil {
			return total, err
		}
		if c.Credentials.HasPassword {
			n, err = encodeString(w, c.Credentials.Password)
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	return total, nil
}
