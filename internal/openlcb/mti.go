// Package openlcb implements the protocol-message layer above the CAN
// adaptation: the MTI catalog, the post-login advertisement sequencer
// (spec.md 4.10), the message-level main dispatcher and its handler
// fan-out (spec.md 4.11), and (in the bclock subpackage) Broadcast Time
// accumulator arithmetic.
package openlcb

// MTI classifies an OpenLCB message. This implementation's CAN identifier
// layout (internal/wire) reserves only 12 bits for the variable field that
// carries an MTI on the wire, so every MTI here is chosen to match the low
// 12 bits of the corresponding real-world OpenLCB MTI where one exists —
// the same truncation the real protocol itself relies on, since a CAN
// "OpenLCB message" frame's type field already implies the high nibble.
type MTI uint16

// AddressPresentBit marks an MTI whose first payload fragment carries a
// destination alias and therefore participates in this implementation's
// multi-frame addressing convention (spec.md 6, internal/can's
// AddressingClassifier).
const AddressPresentBit MTI = 0x008

// EventBit marks an MTI that carries a 64-bit Event ID as its payload.
const EventBit MTI = 0x004

const (
	MTIInitializationComplete       MTI = 0x100
	MTIInitializationCompleteSimple MTI = 0x101

	MTIVerifyNodeIDGlobal    MTI = 0x490
	MTIVerifyNodeIDAddressed MTI = 0x488 | AddressPresentBit
	MTIVerifiedNodeID        MTI = 0x170

	MTIOptionalInteractionRejected MTI = 0x068 | AddressPresentBit
	MTITerminateDueToError         MTI = 0x0A8 | AddressPresentBit

	MTIProtocolSupportInquiry MTI = 0x828 | AddressPresentBit
	MTIProtocolSupportReply   MTI = 0x668 | AddressPresentBit

	MTISNIPRequest MTI = 0xDE8 | AddressPresentBit
	MTISNIPReply   MTI = 0xA08 | AddressPresentBit

	MTIEventsIdentifyDest   MTI = 0x968 | AddressPresentBit
	MTIEventsIdentifyGlobal MTI = 0x970
	MTIProducerIdentifiedSet      MTI = 0x4E4 | EventBit
	MTIProducerIdentifiedClear    MTI = 0x4E5 | EventBit
	MTIProducerIdentifiedUnknown  MTI = 0x4E7 | EventBit
	MTIProducerIdentifiedReserved MTI = 0x4E6 | EventBit
	MTIConsumerIdentifiedSet      MTI = 0x4C7 | EventBit
	MTIConsumerIdentifiedClear    MTI = 0x4C6 | EventBit
	MTIConsumerIdentifiedUnknown  MTI = 0x4C4 | EventBit
	MTIConsumerIdentifiedReserved MTI = 0x4C5 | EventBit
	MTIIdentifyConsumer           MTI = 0x8F4 | EventBit
	MTIIdentifyProducer           MTI = 0x914 | EventBit
	MTIEventLearn                 MTI = 0x594 | EventBit
	MTIPCEventReport              MTI = 0x5B4 | EventBit
	MTIPCEventReportWithPayload   MTI = 0x5B9 | EventBit | AddressPresentBit

	MTIDatagram         MTI = 0xC48 | AddressPresentBit
	MTIDatagramOK       MTI = 0xA28 | AddressPresentBit
	MTIDatagramRejected MTI = 0xA48 | AddressPresentBit

	MTIStreamInitiateRequest MTI = 0xCC8 | AddressPresentBit
	MTIStreamInitiateReply   MTI = 0xCC9 | AddressPresentBit
	MTIStreamSend            MTI = 0x1F9 | AddressPresentBit
	MTIStreamProceed         MTI = 0xCCA | AddressPresentBit
	MTIStreamComplete        MTI = 0xCCB | AddressPresentBit

	MTITrainControlCommand MTI = 0x5CA | AddressPresentBit
	MTITrainControlReply   MTI = 0x5CB | AddressPresentBit
	MTITrainSNIPReply      MTI = 0xA09 | AddressPresentBit
)

// IsAddressed reports whether mti's first CAN fragment carries a
// destination-alias prefix.
func (m MTI) IsAddressed() bool { return m&AddressPresentBit != 0 }

// IsEvent reports whether mti's payload is (or begins with) a 64-bit
// Event ID.
func (m MTI) IsEvent() bool { return m&EventBit != 0 }

// IsGlobal reports whether mti fires on every node in the table rather
// than a specific destination (spec.md 4.11: "a global-scope message...
// fires on every node").
func (m MTI) IsGlobal() bool {
	switch m {
	case MTIInitializationComplete, MTIInitializationCompleteSimple,
		MTIVerifyNodeIDGlobal, MTIVerifiedNodeID, MTIEventsIdentifyGlobal,
		MTIProducerIdentifiedSet, MTIProducerIdentifiedClear, MTIProducerIdentifiedUnknown, MTIProducerIdentifiedReserved,
		MTIConsumerIdentifiedSet, MTIConsumerIdentifiedClear, MTIConsumerIdentifiedUnknown, MTIConsumerIdentifiedReserved,
		MTIIdentifyConsumer, MTIIdentifyProducer, MTIEventLearn, MTIPCEventReport:
		return true
	default:
		return false
	}
}

// IsAddressedMTI adapts MTI.IsAddressed to internal/can's
// AddressingClassifier function type.
func IsAddressedMTI(mti uint16) bool { return MTI(mti).IsAddressed() }
