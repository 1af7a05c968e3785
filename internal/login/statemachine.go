package login

import (
	"github.com/openlcb/canlink/internal/constants"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
)

// AliasSource is the subset of the alias mapping table the state machine
// needs: collision-checking a candidate alias and registering it as a
// tentative (not yet permitted) mapping once accepted (spec.md 4.4, 4.7).
type AliasSource interface {
	FindByAlias(alias uint16) (nodeID uint64, permitted bool, ok bool)
	Register(alias uint16, nodeID uint64) bool
}

// cidFragment extracts the 12-bit slice of nodeID for CID sequence seq
// (7, 6, 5, or 4), per spec.md 4.7's four-frame Node ID disclosure.
func cidFragment(nodeID uint64, seq uint8) uint16 {
	switch seq {
	case 7:
		return uint16(nodeID>>36) & 0xFFF
	case 6:
		return uint16(nodeID>>24) & 0xFFF
	case 5:
		return uint16(nodeID>>12) & 0xFFF
	case 4:
		return uint16(nodeID) & 0xFFF
	default:
		return 0
	}
}

func cidFrame(alias uint16, nodeID uint64, seq uint8) wire.Frame {
	typ, _ := wire.CIDFrameType(seq)
	return wire.Frame{ID: wire.Identifier{
		Type:        typ,
		Variable:    wire.EncodeCID(cidFragment(nodeID, seq)),
		SourceAlias: alias,
	}}
}

func ridFrame(alias uint16) wire.Frame {
	return wire.Frame{ID: wire.Identifier{
		Type:        wire.FrameTypeControlOther,
		Variable:    constants.VarRID,
		SourceAlias: alias,
	}}
}

// AMDFrame builds the Alias Map Definition frame announcing alias -> nodeID.
func AMDFrame(alias uint16, nodeID uint64) wire.Frame {
	data := make([]byte, 6)
	wire.PutNodeID(data, nodeID)
	return wire.Frame{ID: wire.Identifier{
		Type:        wire.FrameTypeControlOther,
		Variable:    constants.VarAMD,
		SourceAlias: alias,
	}, Data: data}
}

// Step advances n's login sequence by exactly one unit of work, matching
// the non-blocking cooperative main-loop convention (spec.md 4.7, 4.9): it
// either produces the next PendingLoginFrame, waits on the tick counter, or
// moves n.State forward. aliases is consulted to detect a collision between
// a just-generated candidate alias and one already in use; the caller is
// responsible for re-invoking Step once any previously pending frame has
// actually been transmitted.
func Step(n *node.Node, aliases AliasSource) {
	if n.HasPendingLoginFrame {
		return // caller hasn't drained the last frame yet
	}

	switch n.State {
	case node.Init:
		n.Seed = n.ID
		n.State = node.GenerateAlias

	case node.GenerateSeed:
		n.Seed, n.Alias = NextNonZeroAlias(n.Seed)
		n.State = node.GenerateAlias

	case node.GenerateAlias:
		if n.Alias == 0 {
			n.Seed, n.Alias = NextNonZeroAlias(n.Seed)
		}
		if _, _, collide := aliases.FindByAlias(n.Alias); collide {
			n.State = node.GenerateSeed
			return
		}
		aliases.Register(n.Alias, n.ID) // tentative: not yet permitted
		n.State = node.LoadCID07

	case node.LoadCID07:
		n.PendingLoginFrame = cidFrame(n.Alias, n.ID, 7)
		n.HasPendingLoginFrame = true
		n.State = node.LoadCID06

	case node.LoadCID06:
		n.PendingLoginFrame = cidFrame(n.Alias, n.ID, 6)
		n.HasPendingLoginFrame = true
		n.State = node.LoadCID05

	case node.LoadCID05:
		n.PendingLoginFrame = cidFrame(n.Alias, n.ID, 5)
		n.HasPendingLoginFrame = true
		n.State = node.LoadCID04

	case node.LoadCID04:
		n.PendingLoginFrame = cidFrame(n.Alias, n.ID, 4)
		n.HasPendingLoginFrame = true
		n.TimerTicks = 0
		n.State = node.Wait200ms

	case node.Wait200ms:
		if n.Flags.DuplicateIDDetected {
			n.Flags.DuplicateIDDetected = false
			n.State = node.GenerateSeed
			return
		}
		if n.TimerTicks > constants.CIDWaitTicksRequired {
			n.State = node.LoadReserveID
		}

	case node.LoadReserveID:
		n.PendingLoginFrame = ridFrame(n.Alias)
		n.HasPendingLoginFrame = true
		n.State = node.LoadAliasMapDefinition

	case node.LoadAliasMapDefinition:
		n.PendingLoginFrame = AMDFrame(n.Alias, n.ID)
		n.HasPendingLoginFrame = true
		n.Flags.Permitted = true
		n.State = node.LoadInitializationComplete

	case node.LoadInitializationComplete, node.LoadProducerEvents, node.LoadConsumerEvents, node.LoginComplete, node.Run:
		// Owned by the OpenLCB login sequencer once the node has a
		// permitted alias; nothing left for the CAN layer to do here.
		return
	}
}
