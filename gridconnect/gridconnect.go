// Package gridconnect implements the GridConnect ASCII framing used by
// many serial and TCP CAN adaptations (spec.md 6): `:X<8-hex-digit
// identifier>N<0-16 hex digit data>;`. It is a pure []byte<->wire.Frame
// codec with no dependency on the core dispatch loop — many CAN
// adaptations are GridConnect-bridged but the core only ever sees raw
// wire.Frame values.
package gridconnect

import (
	"bytes"
	"fmt"

	"github.com/openlcb/canlink/internal/wire"
)

// Encode renders a single frame as one GridConnect ASCII message,
// including the trailing ';' but no line terminator.
func Encode(f wire.Frame) []byte {
	id := f.ID.Encode()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, ":X%08XN", id)
	for _, b := range f.Data {
		fmt.Fprintf(&buf, "%02X", b)
	}
	buf.WriteByte(';')
	return buf.Bytes()
}

// Decoder accumulates bytes from a serial/TCP stream and extracts
// complete GridConnect messages one frame at a time, tolerating
// interleaved whitespace and resynchronizing on the next ':' after a
// malformed message (spec.md 6 describes the wire shape only; resync
// behavior mirrors how real GridConnect adapters recover from a
// corrupted byte on a noisy link).
type Decoder struct {
	buf []byte
}

// Feed appends newly-arrived bytes to the decode buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next extracts and decodes the next complete ':X...;' message from the
// buffer, if any. It returns ok=false when no complete message is
// buffered yet; call Feed again before retrying.
func (d *Decoder) Next() (f wire.Frame, ok bool, err error) {
	for {
		start := bytes.IndexByte(d.buf, ':')
		if start < 0 {
			d.buf = d.buf[:0]
			return wire.Frame{}, false, nil
		}
		end := bytes.IndexByte(d.buf[start:], ';')
		if end < 0 {
			d.buf = d.buf[start:]
			return wire.Frame{}, false, nil
		}
		msg := d.buf[start : start+end+1]
		d.buf = d.buf[start+end+1:]

		f, decErr := decodeMessage(msg)
		if decErr != nil {
			// Malformed message: drop it and keep scanning for the next ':'
			// rather than surfacing one corrupt frame as a fatal stream error.
			continue
		}
		return f, true, nil
	}
}

func decodeMessage(msg []byte) (wire.Frame, error) {
	if len(msg) < 11 || msg[0] != ':' || msg[len(msg)-1] != ';' {
		return wire.Frame{}, fmt.Errorf("gridconnect: malformed message %q", msg)
	}
	if msg[1] != 'X' && msg[1] != 'x' {
		return wire.Frame{}, fmt.Errorf("gridconnect: unsupported frame kind %q", msg)
	}
	idHex := msg[2:10]
	var id uint32
	if _, err := fmt.Sscanf(string(idHex), "%08X", &id); err != nil {
		return wire.Frame{}, fmt.Errorf("gridconnect: bad identifier %q: %w", idHex, err)
	}
	rest := msg[10 : len(msg)-1]
	if len(rest) == 0 || (rest[0] != 'N' && rest[0] != 'n') {
		return wire.Frame{}, fmt.Errorf("gridconnect: missing data marker %q", msg)
	}
	dataHex := rest[1:]
	if len(dataHex)%2 != 0 || len(dataHex) > 16 {
		return wire.Frame{}, fmt.Errorf("gridconnect: bad data field %q", dataHex)
	}
	data := make([]byte, len(dataHex)/2)
	for i := range data {
		var b uint8
		if _, err := fmt.Sscanf(string(dataHex[i*2:i*2+2]), "%02X", &b); err != nil {
			return wire.Frame{}, fmt.Errorf("gridconnect: bad data byte %q: %w", dataHex[i*2:i*2+2], err)
		}
		data[i] = b
	}
	return wire.Frame{ID: wire.DecodeIdentifier(id), Data: data}, nil
}
