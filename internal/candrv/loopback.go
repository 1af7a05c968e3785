package candrv

import "github.com/openlcb/canlink/internal/wire"

// LoopbackDriver is an in-process Driver: frames handed to TransmitFrame are
// queued and handed back out by PollReceive, optionally fanned out to other
// attached LoopbackDrivers to simulate a shared bus. It is used by the
// loopback demo command and throughout the test suite in place of real
// hardware (spec.md 8).
type LoopbackDriver struct {
	txReady bool
	queue   []wire.Frame
	peers   []*LoopbackDriver
	capacity int
}

// NewLoopbackDriver creates a driver whose internal transmit queue holds up
// to capacity frames before TransmitFrame starts reporting ErrTxBufferFull.
func NewLoopbackDriver(capacity int) *LoopbackDriver {
	return &LoopbackDriver{txReady: true, capacity: capacity}
}

// Attach joins two LoopbackDrivers onto the same simulated bus: a frame
// transmitted on one is received by the other (and by any other driver
// already attached to either side), modeling the broadcast nature of a CAN
// bus so a multi-node login/duplicate-alias scenario can be exercised
// end-to-end without real hardware.
func Attach(a, b *LoopbackDriver) {
	a.peers = append(a.peers, b)
	b.peers = append(b.peers, a)
}

func (d *LoopbackDriver) IsTxBufferReady() bool { return d.txReady && len(d.queue) < d.capacity }

func (d *LoopbackDriver) TransmitFrame(f wire.Frame) error {
	if !d.IsTxBufferReady() {
		return ErrTxBufferFull
	}
	// A transmitted frame is also queued for this driver's own
	// PollReceive, mirroring a real CAN controller's loopback of its own
	// traffic. Frames from other nodes arrive through peers' deliver.
	d.queue = append(d.queue, f)
	for _, p := range d.peers {
		p.deliver(f)
	}
	return nil
}

// deliver is how a peer's transmission arrives on this driver's own receive
// side; it is not part of the public Driver surface.
func (d *LoopbackDriver) deliver(f wire.Frame) {
	d.queue = append(d.queue, f)
}

func (d *LoopbackDriver) PollReceive(sink FrameSink) (int, error) {
	n := len(d.queue)
	for _, f := range d.queue {
		sink(f)
	}
	d.queue = d.queue[:0]
	return n, nil
}

// SetTxReady lets tests simulate the hardware transmit queue backing up.
func (d *LoopbackDriver) SetTxReady(ready bool) { d.txReady = ready }

func (d *LoopbackDriver) Close() error { return nil }
