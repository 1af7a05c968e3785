package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func snipPayload(nulls int) []byte {
	fields := make([]string, nulls+1)
	for i := range fields {
		fields[i] = "x"
	}
	return []byte(strings.Join(fields, "\x00"))
}

func TestValidateSNIPReply(t *testing.T) {
	require.True(t, ValidateSNIPReply(snipPayload(SNIPFieldCount)))
	require.False(t, ValidateSNIPReply(snipPayload(SNIPFieldCount-1)))
	require.False(t, ValidateSNIPReply(snipPayload(SNIPFieldCount+1)))
}

func TestValidateSNIPReplyLengthLimit(t *testing.T) {
	oversized := make([]byte, SNIPMaxLen+1)
	require.False(t, ValidateSNIPReply(oversized))
}

func TestSplitSNIPFields(t *testing.T) {
	payload := snipPayload(SNIPFieldCount)
	fields := SplitSNIPFields(payload)
	require.Len(t, fields, SNIPFieldCount+1)
}
