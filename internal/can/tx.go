package can

import "github.com/openlcb/canlink/internal/wire"

// OutgoingMessage is a fully-formed application-level payload waiting to be
// fragmented into CAN frames (spec.md 4.8). Producer and Datagram/Stream
// flags mirror which identifier-level category TxMachine encodes.
type OutgoingMessage struct {
	SourceAlias uint16
	DestAlias   uint16
	Addressed   bool // consumes the 2-byte destination-alias payload prefix
	MTI         uint16
	Datagram    bool
	Stream      bool
	Payload     []byte
}

// TxMachine fragments one OutgoingMessage at a time into CAN frames,
// advancing a byte cursor across repeated Step calls until the whole
// payload has been accepted by the driver (spec.md 4.8). A message is not
// considered sent until every fragment is accepted — Step never drops a
// partially-sent message on a busy transmit buffer, it simply returns and
// is called again later with the same cursor position.
type TxMachine struct {
	msg     *OutgoingMessage
	cursor  int
	started bool
}

// Load installs msg as the message currently being transmitted, resetting
// the fragmentation cursor. A TxMachine handles one message at a time; the
// caller must not Load a new message until Done reports true.
func (t *TxMachine) Load(msg *OutgoingMessage) {
	t.msg = msg
	t.cursor = 0
	t.started = false
}

// Done reports whether the loaded message (if any) has been fully
// fragmented and handed to the driver. A zero-length payload still needs
// exactly one fragment (carrying the destination alias, for an addressed
// message, or nothing at all), hence the explicit started flag rather than
// relying solely on cursor >= len(payload).
func (t *TxMachine) Done() bool {
	return t.msg == nil || (t.started && t.cursor >= len(t.msg.Payload))
}

const maxCANPayload = 8

// addressPrefixLen is the number of leading payload bytes consumed to carry
// the destination alias on an addressed, non-datagram message's first
// fragment (spec.md 6).
const addressPrefixLen = 2

// Step attempts to transmit exactly one more fragment of the loaded
// message. It returns false (without consuming the cursor) if the driver's
// transmit buffer was not ready; the caller retries on a later tick.
func (t *TxMachine) Step(send func(wire.Frame) error) (bool, error) {
	if t.Done() {
		return true, nil
	}

	frame, nextCursor := t.buildFragment()
	if err := send(frame); err != nil {
		return false, err
	}
	t.cursor = nextCursor
	t.started = true
	return true, nil
}

func (t *TxMachine) buildFragment() (wire.Frame, int) {
	msg := t.msg

	if msg.Datagram || msg.Stream {
		return t.buildDatagramOrStreamFragment()
	}
	if !msg.Addressed {
		return wire.Frame{
			ID:   wire.Identifier{Type: wire.FrameTypeOpenLCB, Variable: msg.MTI, SourceAlias: msg.SourceAlias},
			Data: msg.Payload,
		}, len(msg.Payload)
	}
	return t.buildAddressedFragment()
}

func (t *TxMachine) buildAddressedFragment() (wire.Frame, int) {
	msg := t.msg
	remaining := len(msg.Payload) - t.cursor
	first := !t.started

	budget := maxCANPayload - 1 // continuation frames: one flag byte
	if first {
		// The flag shares the first alias-prefix byte.
		budget = maxCANPayload - addressPrefixLen
	}
	n := remaining
	if n > budget {
		n = budget
	}
	last := t.cursor+n >= len(msg.Payload)

	var flag wire.MultiFrameFlag
	switch {
	case first && last:
		flag = wire.MultiFrameOnly
	case first:
		flag = wire.MultiFrameFirst
	case last:
		flag = wire.MultiFrameLast
	default:
		flag = wire.MultiFrameMiddle
	}

	data := make([]byte, 0, maxCANPayload)
	flagByte := wire.EncodeMultiFrameByte(flag)
	if first {
		prefix := make([]byte, addressPrefixLen)
		wire.PutAlias(prefix, msg.DestAlias)
		flagByte |= prefix[0]
		data = append(data, flagByte, prefix[1])
	} else {
		data = append(data, flagByte)
	}
	data = append(data, msg.Payload[t.cursor:t.cursor+n]...)

	return wire.Frame{
		ID:   wire.Identifier{Type: wire.FrameTypeOpenLCB, Variable: msg.MTI, SourceAlias: msg.SourceAlias},
		Data: data,
	}, t.cursor + n
}

func (t *TxMachine) buildDatagramOrStreamFragment() (wire.Frame, int) {
	msg := t.msg
	remaining := len(msg.Payload) - t.cursor
	first := !t.started

	n := remaining
	if n > maxCANPayload {
		n = maxCANPayload
	}
	last := t.cursor+n >= len(msg.Payload)

	typ := wire.FrameTypeDatagramFirst
	switch {
	case first && last:
		typ = wire.FrameTypeDatagramOnly
	case first:
		typ = wire.FrameTypeDatagramFirst
	case last:
		typ = wire.FrameTypeDatagramLast
	default:
		typ = wire.FrameTypeDatagramMid
	}
	if msg.Stream {
		typ = wire.FrameTypeStream
	}

	return wire.Frame{
		ID:   wire.Identifier{Type: typ, Variable: msg.DestAlias, SourceAlias: msg.SourceAlias},
		Data: append([]byte(nil), msg.Payload[t.cursor:t.cursor+n]...),
	}, t.cursor + n
}
