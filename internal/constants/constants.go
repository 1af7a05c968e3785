// Package constants holds wire-level and tuning constants for the OpenLCB
// CAN adaptation. Values that are wire-observable (identifier fields, LFSR
// coefficients, timing floors) are called out as such; they must not be
// changed without breaking interoperability with other OpenLCB nodes.
package constants

import "time"

// Buffer Store size tiers (spec.md 3, 4.1). Payload arrays are promoted to
// the smallest tier that fits.
const (
	TierBasicBytes    = 8
	TierDatagramBytes = 72
	TierSnipBytes     = 253
)

// Default configuration constants for a Stack.
const (
	// DefaultCANFIFODepth is the default inbound/outbound CAN Buffer FIFO
	// depth (USER_DEFINED_CAN_MSG_BUFFER_DEPTH in the original C source).
	// The ring is sized depth+1 so head==tail is unambiguous.
	DefaultCANFIFODepth = 32

	// DefaultPartialListDepth mirrors the Buffer Store depth (spec.md 4.3).
	DefaultPartialListDepth = DefaultCANFIFODepth

	// DefaultNodeTableDepth is the number of virtual nodes a single Stack
	// can host.
	DefaultNodeTableDepth = 4

	// DefaultAliasTableDepth bounds the Alias Mapping Table; it must be at
	// least DefaultNodeTableDepth plus room for observed remote aliases.
	DefaultAliasTableDepth = 32

	// DefaultDatagramRetries is the total number of transmissions, the
	// first send included, before a datagram send is abandoned (spec.md 4.12).
	DefaultDatagramRetries = 2
)

// Timing constants for CAN login (spec.md 4.7).
//
// The wire protocol requires at least 200ms of silence between the last CID
// frame and the RID frame. The core has no microsecond timer: it polls a
// 100ms tick counter, so WAIT_200ms floors at 300ms (3 ticks) to guarantee
// the 200ms requirement is met even when the reset happened just before a
// tick boundary.
const (
	// CIDWaitTicksRequired is the tick-counter value that must be exceeded
	// (not just reached) before LOAD_RESERVE_ID may run.
	CIDWaitTicksRequired = 2

	// TickInterval is the nominal period between on_100ms_tick calls. It is
	// informational only; the core never measures wall-clock time directly.
	TickInterval = 100 * time.Millisecond
)

// LFSR coefficients (spec.md 4.7). Wire-observable: two independent
// implementations must converge on the same alias from the same seed.
const (
	LFSRAddConstH = 0x1B0CA3
	LFSRAddConstL = 0x7A4BA9
	Mask24        = 0xFFFFFF
	Mask12        = 0xFFF
)

// Alias and Node ID ranges (spec.md 3).
const (
	AliasMin    = 0x001
	AliasMax    = 0xFFF
	AliasEmpty  = 0x000
	NodeIDMin   = 1
	NodeIDMax   = (uint64(1) << 48) - 1
	NodeIDBits  = 48
	EventIDBits = 64
)

// CAN control-frame variable field values (spec.md 6). CID frames are
// distinguished by their 4-bit frame-type value (0x7..0xA for CID7..CID4,
// see internal/wire), not by the variable field value itself.
const (
	VarRID = 0x700
	VarAMD = 0x701
	VarAME = 0x702
	VarAMR = 0x703
)
