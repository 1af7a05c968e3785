package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeIDRoundTrip(t *testing.T) {
	buf := make([]byte, 6)
	const id = uint64(0x02_01_57_00_00_01)
	PutNodeID(buf, id)
	require.Equal(t, []byte{0x02, 0x01, 0x57, 0x00, 0x00, 0x01}, buf)
	require.Equal(t, id, NodeID(buf))
}

func TestEventIDRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	const id = uint64(0x0102030405060708)
	PutEventID(buf, id)
	require.Equal(t, id, EventID(buf))
}

func TestMultiFrameFlagAsymmetry(t *testing.T) {
	require.Equal(t, byte(0b00<<6), EncodeMultiFrameByte(MultiFrameOnly))
	require.Equal(t, MultiFrameOnly, DecodeMultiFrameByte(0))
	for _, f := range []MultiFrameFlag{MultiFrameOnly, MultiFrameFirst, MultiFrameLast, MultiFrameMiddle} {
		b := EncodeMultiFrameByte(f)
		require.Equal(t, f, DecodeMultiFrameByte(b))
	}
}

func TestAliasRoundTripMasksFlagBits(t *testing.T) {
	buf := make([]byte, 2)
	PutAlias(buf, 0xABC)
	buf[0] |= EncodeMultiFrameByte(MultiFrameMiddle)
	require.Equal(t, uint16(0xABC), Alias(buf))
}
