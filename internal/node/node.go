// Package node implements the virtual-node record and the fixed node table
// that holds them (spec.md 3, 4.5).
package node

import "github.com/openlcb/canlink/internal/wire"

// EventStatus is a producer/consumer event's last-known state.
type EventStatus uint8

const (
	EventUnknown EventStatus = iota
	EventSet
	EventClear
	EventReserved
)

// Event pairs an Event ID with its current status.
type Event struct {
	ID     uint64
	Status EventStatus
}

// Params bundles the static configuration of a virtual node: its
// protocol-support bit-set, producer/consumer autocreate counts, and a
// reference to its configuration-memory layout. ConfigMemory is supplied by
// the external collaborator described in spec.md 6; this package only
// stores the reference.
type Params struct {
	ProtocolSupport     uint64 // bit-set, see openlcb.ProtocolSupport* constants
	AutoCreateProducers int
	AutoCreateConsumers int
	ConfigMemoryLayout  interface{} // opaque to the core; interpreted by handlers
	SimpleProtocol      bool        // advertise Simple Node Information / Simple Init Complete
}

// Flags mirrors the boolean state bits of spec.md 3's virtual-node record.
type Flags struct {
	Allocated             bool
	DuplicateIDDetected   bool
	Initialized           bool
	Permitted             bool
	DatagramAckSent       bool
	ResendDatagram        bool
	FirmwareUpgradeActive bool
	OpenLCBMsgHandled     bool
	AMEPending            bool // deferred Alias Map Enquiry reply owed (spec.md 4.6)
	IdentifyEventsPending bool // deferred Identify Events burst owed (spec.md 4.11)
}

// Node is a single virtual node hosted by this Stack (spec.md 3).
type Node struct {
	ID     uint64
	Alias  uint16
	Seed   uint64 // 48-bit LFSR seed
	Flags  Flags
	State  RunState
	Params Params

	Producers []Event
	Consumers []Event
	prodCursor int
	consCursor int

	TimerTicks uint16
	Owner      *Node // for train-consist hierarchy; nil if top-level
	Index      int   // position within the owning NodeTable

	// PendingLoginFrame holds the single outgoing CAN control frame the
	// login state machine wants sent; HasPendingLoginFrame is false when
	// nothing is pending. Each login state reads/writes exactly this one
	// outgoing frame buffer (spec.md 4.7), and the CAN main dispatcher
	// retries it until the hardware accepts it (spec.md 4.8).
	PendingLoginFrame    wire.Frame
	HasPendingLoginFrame bool
}

// ResetProducerCursor rewinds producer enumeration to the start.
func (n *Node) ResetProducerCursor() { n.prodCursor = 0 }

// ResetConsumerCursor rewinds consumer enumeration to the start.
func (n *Node) ResetConsumerCursor() { n.consCursor = 0 }

// NextProducer returns the next producer event to advertise during login,
// advancing the cursor. ok is false once exhausted.
func (n *Node) NextProducer() (ev Event, ok bool) {
	if n.prodCursor >= len(n.Producers) {
		return Event{}, false
	}
	ev = n.Producers[n.prodCursor]
	n.prodCursor++
	return ev, true
}

// NextConsumer returns the next consumer event to advertise during login,
// advancing the cursor. ok is false once exhausted.
func (n *Node) NextConsumer() (ev Event, ok bool) {
	if n.consCursor >= len(n.Consumers) {
		return Event{}, false
	}
	ev = n.Consumers[n.consCursor]
	n.consCursor++
	return ev, true
}

// ProducerCursorDone reports whether producer enumeration is exhausted.
func (n *Node) ProducerCursorDone() bool { return n.prodCursor >= len(n.Producers) }

// ConsumerCursorDone reports whether consumer enumeration is exhausted.
func (n *Node) ConsumerCursorDone() bool { return n.consCursor >= len(n.Consumers) }
