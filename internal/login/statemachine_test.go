package login

import (
	"testing"

	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
	"github.com/stretchr/testify/require"
)

type fakeAliases struct {
	occupied map[uint16]bool
}

func (f fakeAliases) FindByAlias(alias uint16) (uint64, bool, bool) {
	if f.occupied[alias] {
		return 0xDEAD, true, true
	}
	return 0, false, false
}

func (f fakeAliases) Register(alias uint16, nodeID uint64) bool {
	if f.occupied == nil {
		return true
	}
	f.occupied[alias] = true
	return true
}

// drain runs Step until it produces a frame, returns it, and clears
// HasPendingLoginFrame as the CAN main dispatcher would once the hardware
// accepted transmission (spec.md 4.8, 4.9).
func drain(t *testing.T, n *node.Node, aliases AliasSource) wire.Frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		Step(n, aliases)
		if n.HasPendingLoginFrame {
			f := n.PendingLoginFrame
			n.HasPendingLoginFrame = false
			return f
		}
	}
	t.Fatal("login state machine never produced a frame")
	return wire.Frame{}
}

// TestLoginSequenceSixFrames pins the exact frame sequence of spec.md 8
// scenario 2: CID7, CID6, CID5, CID4, then (after at least 300ms / 3 ticks
// of silence) RID, then AMD.
func TestLoginSequenceSixFrames(t *testing.T) {
	n := &node.Node{ID: 0x020157000001}
	n.State = node.Init
	aliases := fakeAliases{occupied: map[uint16]bool{}}

	cid7 := drain(t, n, aliases)
	require.Equal(t, wire.FrameTypeCID7, cid7.ID.Type)

	cid6 := drain(t, n, aliases)
	require.Equal(t, wire.FrameTypeCID6, cid6.ID.Type)

	cid5 := drain(t, n, aliases)
	require.Equal(t, wire.FrameTypeCID5, cid5.ID.Type)

	cid4 := drain(t, n, aliases)
	require.Equal(t, wire.FrameTypeCID4Seq, cid4.ID.Type)

	require.Equal(t, node.Wait200ms, n.State)

	// Silence must last more than CIDWaitTicksRequired ticks before RID.
	Step(n, aliases)
	require.False(t, n.HasPendingLoginFrame, "must not send RID before the wait elapses")
	n.TimerTicks++
	Step(n, aliases)
	require.False(t, n.HasPendingLoginFrame)
	n.TimerTicks++
	Step(n, aliases)
	require.False(t, n.HasPendingLoginFrame)
	n.TimerTicks++ // now > CIDWaitTicksRequired (2)

	rid := drain(t, n, aliases)
	require.Equal(t, wire.FrameTypeControlOther, rid.ID.Type)
	require.Equal(t, uint16(0x700), rid.ID.Variable)

	amd := drain(t, n, aliases)
	require.Equal(t, wire.FrameTypeControlOther, amd.ID.Type)
	require.Equal(t, uint16(0x701), amd.ID.Variable)
	require.Equal(t, n.ID, wire.NodeID(amd.Data))

	require.True(t, n.Flags.Permitted)
	require.Equal(t, node.LoadInitializationComplete, n.State)
}

// TestLoginAliasFromKnownNodeID pins spec.md 8 scenario 1: given a known
// Node ID and a clean (no collisions) alias table, the resulting alias is a
// deterministic function of the Node ID.
func TestLoginAliasFromKnownNodeID(t *testing.T) {
	n := &node.Node{ID: 0x020157000001}
	aliases := fakeAliases{occupied: map[uint16]bool{}}

	Step(n, aliases) // Init -> GenerateAlias
	Step(n, aliases) // GenerateAlias -> LoadCID07 (or GenerateSeed retry)
	require.NotZero(t, n.Alias)
	require.LessOrEqual(t, n.Alias, uint16(0xFFF))

	n2 := &node.Node{ID: 0x020157000001}
	Step(n2, aliases)
	Step(n2, aliases)
	require.Equal(t, n.Alias, n2.Alias, "same Node ID and seed must produce the same alias")
}

func TestLoginRetriesOnAliasCollision(t *testing.T) {
	n := &node.Node{ID: 0x020157000001}
	n.Seed = n.ID
	Step(n, fakeAliases{}) // Init -> GenerateAlias
	n.Seed, n.Alias = NextNonZeroAlias(n.Seed)
	n.State = node.GenerateAlias

	collide := fakeAliases{occupied: map[uint16]bool{n.Alias: true}}
	Step(n, collide)
	require.Equal(t, node.GenerateSeed, n.State)

	Step(n, collide)
	require.Equal(t, node.GenerateAlias, n.State)
}

func TestLoginRestartsOnDuplicateDetectedDuringWait(t *testing.T) {
	n := &node.Node{ID: 0x020157000001}
	n.State = node.Wait200ms
	n.Flags.DuplicateIDDetected = true
	aliases := fakeAliases{}

	Step(n, aliases)
	require.Equal(t, node.GenerateSeed, n.State)
	require.False(t, n.Flags.DuplicateIDDetected)
}
