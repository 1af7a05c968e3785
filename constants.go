package canlink

import "github.com/openlcb/canlink/internal/constants"

// Buffer-store tier capacities, re-exported for callers sizing their own
// pools or inspecting metrics (spec.md 3, 4.1).
const (
	TierBasicBytes    = constants.TierBasicBytes
	TierDatagramBytes = constants.TierDatagramBytes
	TierSnipBytes     = constants.TierSnipBytes
)

// AliasMin and AliasMax bound the valid 12-bit alias range (0x000 means
// "empty slot" and is never assigned).
const (
	AliasMin uint16 = 0x001
	AliasMax uint16 = 0xFFF
)

// TickInterval is the nominal period of the single on_100ms_tick entry
// point this module is driven by (spec.md 5, 8).
const TickInterval = constants.TickInterval

// Default depths used by NewStack when StackParams leaves a field zero.
const (
	DefaultCANFIFODepth     = constants.DefaultCANFIFODepth
	DefaultPartialListDepth = constants.DefaultPartialListDepth
	DefaultNodeTableDepth   = constants.DefaultNodeTableDepth
	DefaultAliasTableDepth  = constants.DefaultAliasTableDepth
	DefaultDatagramRetries  = constants.DefaultDatagramRetries
)
