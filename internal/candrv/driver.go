// Package candrv defines the hardware boundary for the CAN adaptation: the
// Driver interface the core dispatchers call against, plus a loopback
// reference implementation and (on Linux) a SocketCAN/io_uring driver
// (spec.md 6 "CAN Transceiver").
package candrv

import (
	"errors"

	"github.com/openlcb/canlink/internal/wire"
)

// ErrTxBufferFull is returned by TransmitFrame when the underlying hardware
// cannot currently accept another frame; the caller retries on a later tick
// (spec.md 4.8, 7).
var ErrTxBufferFull = errors.New("candrv: transmit buffer full")

// FrameSink receives frames arriving from the bus. Implementations of
// Driver call it synchronously from within PollReceive; it must not block.
type FrameSink func(f wire.Frame)

// Driver is the external collaborator the CAN Rx/Tx state machines depend
// on (spec.md 6). It deliberately has no Close-the-loop "blocking send"
// method: the core is single-threaded and cooperative, so every operation
// either completes immediately or reports that it would have blocked.
type Driver interface {
	// IsTxBufferReady reports whether TransmitFrame would currently
	// succeed, so the Tx state machine can avoid a wasted attempt.
	IsTxBufferReady() bool

	// TransmitFrame attempts to send f. It returns ErrTxBufferFull if the
	// hardware's own transmit queue is full; the caller is expected to
	// retry the same frame later.
	TransmitFrame(f wire.Frame) error

	// PollReceive drains whatever frames are currently available from the
	// hardware, invoking sink once per frame, and returns the count. It
	// never blocks waiting for a frame that hasn't arrived yet.
	PollReceive(sink FrameSink) (int, error)

	// Close releases any underlying OS resources (sockets, rings, etc).
	Close() error
}
