package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifierRoundTrip(t *testing.T) {
	cases := []Identifier{
		{Type: FrameTypeOpenLCB, Variable: 0x0490, SourceAlias: 0x123},
		{Type: FrameTypeCID7, Variable: EncodeCID(0x201), SourceAlias: 0x555},
		{Type: FrameTypeCID4Seq, Variable: EncodeCID(0x001), SourceAlias: 0xFFF},
		{Type: FrameTypeControlOther, Variable: 0x701, SourceAlias: 0x001},
		{Type: FrameTypeDatagramFirst, Variable: 0x042, SourceAlias: 0x042},
	}
	for _, want := range cases {
		raw := want.Encode()
		require.Equal(t, uint32(1)<<28, raw&(1<<28), "reserved bit must be set")
		got := DecodeIdentifier(raw)
		require.Equal(t, want, got)
	}
}

func TestCIDFrameTypeRoundTrip(t *testing.T) {
	for _, seq := range []uint8{7, 6, 5, 4} {
		ft, ok := CIDFrameType(seq)
		require.True(t, ok)
		gotSeq, ok := ft.IsCID()
		require.True(t, ok)
		require.Equal(t, seq, gotSeq)
	}

	_, ok := FrameTypeOpenLCB.IsCID()
	require.False(t, ok)
}
