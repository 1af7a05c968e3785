package candrv

import (
	"testing"

	"github.com/openlcb/canlink/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestLoopbackSelfEcho(t *testing.T) {
	d := NewLoopbackDriver(4)
	frame := wire.Frame{ID: wire.Identifier{Type: wire.FrameTypeControlOther, Variable: 0x700, SourceAlias: 0x123}}

	require.NoError(t, d.TransmitFrame(frame))

	var received []wire.Frame
	n, err := d.PollReceive(func(f wire.Frame) { received = append(received, f) })
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, frame, received[0])

	// Queue drained after poll.
	n, _ = d.PollReceive(func(wire.Frame) {})
	require.Equal(t, 0, n)
}

func TestLoopbackTxBufferFull(t *testing.T) {
	d := NewLoopbackDriver(1)
	frame := wire.Frame{ID: wire.Identifier{SourceAlias: 0x1}}
	require.NoError(t, d.TransmitFrame(frame))
	require.False(t, d.IsTxBufferReady())
	require.ErrorIs(t, d.TransmitFrame(frame), ErrTxBufferFull)
}

func TestAttachedDriversShareBus(t *testing.T) {
	a := NewLoopbackDriver(4)
	b := NewLoopbackDriver(4)
	Attach(a, b)

	frame := wire.Frame{ID: wire.Identifier{SourceAlias: 0x42}}
	require.NoError(t, a.TransmitFrame(frame))

	var bReceived []wire.Frame
	n, _ := b.PollReceive(func(f wire.Frame) { bReceived = append(bReceived, f) })
	require.Equal(t, 1, n)
	require.Equal(t, frame, bReceived[0])

	// a also observes its own transmission (bus loopback).
	var aReceived []wire.Frame
	n, _ = a.PollReceive(func(f wire.Frame) { aReceived = append(aReceived, f) })
	require.Equal(t, 1, n)
}

func TestSetTxReadyBlocksTransmission(t *testing.T) {
	d := NewLoopbackDriver(4)
	d.SetTxReady(false)
	require.False(t, d.IsTxBufferReady())
	require.ErrorIs(t, d.TransmitFrame(wire.Frame{}), ErrTxBufferFull)
}
