package can

import (
	"testing"

	"github.com/openlcb/canlink/internal/candrv"
	"github.com/openlcb/canlink/internal/wire"
	"github.com/stretchr/testify/require"
)

func sendAll(t *testing.T, tx *TxMachine) []wire.Frame {
	t.Helper()
	var frames []wire.Frame
	for i := 0; i < 20 && !tx.Done(); i++ {
		ok, err := tx.Step(func(f wire.Frame) error {
			frames = append(frames, f)
			return nil
		})
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.True(t, tx.Done())
	return frames
}

func TestTxUnaddressedSingleFrame(t *testing.T) {
	tx := &TxMachine{}
	tx.Load(&OutgoingMessage{SourceAlias: 0x100, MTI: 0x5B4, Payload: []byte{1, 2, 3, 4, 5, 6, 7, 8}})
	frames := sendAll(t, tx)
	require.Len(t, frames, 1)
	require.Equal(t, wire.FrameTypeOpenLCB, frames[0].ID.Type)
}

func TestTxAddressedShortMessageIsOnly(t *testing.T) {
	tx := &TxMachine{}
	tx.Load(&OutgoingMessage{SourceAlias: 0x100, DestAlias: 0x200, Addressed: true, MTI: 0x99, Payload: []byte{1, 2, 3}})
	frames := sendAll(t, tx)
	require.Len(t, frames, 1)
	require.Equal(t, wire.MultiFrameOnly, wire.DecodeMultiFrameByte(frames[0].Data[0]))
	require.Equal(t, uint16(0x200), wire.Alias(frames[0].Data[:2]))
	require.Equal(t, []byte{1, 2, 3}, frames[0].Data[2:])
}

func TestTxAddressedLongMessageFragments(t *testing.T) {
	tx := &TxMachine{}
	payload := make([]byte, 14) // 6 + 7 + 1, to force first/middle/last
	for i := range payload {
		payload[i] = byte(i)
	}
	tx.Load(&OutgoingMessage{SourceAlias: 0x100, DestAlias: 0x200, Addressed: true, MTI: 0x99, Payload: payload})
	frames := sendAll(t, tx)
	require.GreaterOrEqual(t, len(frames), 3)

	require.Equal(t, wire.MultiFrameFirst, wire.DecodeMultiFrameByte(frames[0].Data[0]))
	require.Equal(t, wire.MultiFrameLast, wire.DecodeMultiFrameByte(frames[len(frames)-1].Data[0]))
	for _, f := range frames[1 : len(frames)-1] {
		require.Equal(t, wire.MultiFrameMiddle, wire.DecodeMultiFrameByte(f.Data[0]))
	}

	// Reassemble and check round trip (skip the 2-byte alias prefix on
	// the first frame, 1-byte flag on the rest).
	var got []byte
	got = append(got, frames[0].Data[2:]...)
	for _, f := range frames[1:] {
		got = append(got, f.Data[1:]...)
	}
	require.Equal(t, payload, got)
}

func TestTxAddressedZeroLengthPayloadSendsOneFrame(t *testing.T) {
	tx := &TxMachine{}
	tx.Load(&OutgoingMessage{SourceAlias: 0x100, DestAlias: 0x200, Addressed: true, MTI: 0x99})
	frames := sendAll(t, tx)
	require.Len(t, frames, 1)
	require.Equal(t, wire.MultiFrameOnly, wire.DecodeMultiFrameByte(frames[0].Data[0]))
}

func TestTxDatagramFragmentsByIdentifierCategory(t *testing.T) {
	tx := &TxMachine{}
	payload := make([]byte, 20)
	tx.Load(&OutgoingMessage{SourceAlias: 0x100, DestAlias: 0x200, Datagram: true, Payload: payload})
	frames := sendAll(t, tx)
	require.GreaterOrEqual(t, len(frames), 3)
	require.Equal(t, wire.FrameTypeDatagramFirst, frames[0].ID.Type)
	require.Equal(t, wire.FrameTypeDatagramLast, frames[len(frames)-1].ID.Type)
	for _, f := range frames[1 : len(frames)-1] {
		require.Equal(t, wire.FrameTypeDatagramMid, f.ID.Type)
	}
}

func TestTxStopsOnBusyTransmitBuffer(t *testing.T) {
	tx := &TxMachine{}
	tx.Load(&OutgoingMessage{SourceAlias: 0x100, MTI: 0x1, Payload: []byte{1}})

	calls := 0
	ok, err := tx.Step(func(wire.Frame) error {
		calls++
		return candrv.ErrTxBufferFull
	})
	require.False(t, ok)
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.False(t, tx.Done(), "a rejected fragment must not advance the cursor")
}
