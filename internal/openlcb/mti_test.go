package openlcb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressedMTIsCarryTheAddressPresentBit(t *testing.T) {
	require.True(t, MTIDatagram.IsAddressed())
	require.True(t, MTIVerifyNodeIDAddressed.IsAddressed())
	require.False(t, MTIVerifyNodeIDGlobal.IsAddressed())
	require.False(t, MTIInitializationComplete.IsAddressed())
}

func TestEventMTIsCarryTheEventBit(t *testing.T) {
	require.True(t, MTIProducerIdentifiedSet.IsEvent())
	require.True(t, MTIPCEventReport.IsEvent())
	require.False(t, MTIDatagram.IsEvent())
}

func TestGlobalScopeMTIs(t *testing.T) {
	require.True(t, MTIVerifyNodeIDGlobal.IsGlobal())
	require.True(t, MTIInitializationComplete.IsGlobal())
	require.False(t, MTIDatagram.IsGlobal())
	require.False(t, MTIVerifyNodeIDAddressed.IsGlobal())
}

func TestIsAddressedMTIAdaptsToUint16(t *testing.T) {
	require.True(t, IsAddressedMTI(uint16(MTISNIPRequest)))
	require.False(t, IsAddressedMTI(uint16(MTIVerifyNodeIDGlobal)))
}
