package openlcb

import (
	"github.com/openlcb/canlink/internal/buffer"
	"github.com/openlcb/canlink/internal/can"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
)

// EnumerationKey is the caller-chosen integer this dispatcher uses for its
// node-table enumeration cursor, distinct from can.EnumerationKey (spec.md
// 4.9, 4.11: "the enumerator used by the CAN dispatcher is distinct from
// the one used by the OpenLCB dispatcher").
const EnumerationKey = 2

// Locker guards the shared inbound-message FIFO against the CAN Rx
// producer, per spec.md 5's "caller-supplied lock/unlock pair around FIFO
// pop" policy. A nil Locker is valid when the caller's driver loop and
// dispatch loop never interleave (e.g. the single-goroutine loopback demo).
type Locker interface {
	Lock()
	Unlock()
}

// targetsNode resolves the Open Question recorded in spec.md 9: a message
// addressed to a specific node is accepted once the node's alias is
// permitted by matching on alias alone; before permit, only an explicit
// Node ID in the payload (as Verify Node ID Addressed carries) can target
// it, since the node's alias is not yet a stable, externally-known handle.
func targetsNode(n *node.Node, msg Message) bool {
	if !msg.MTI.IsAddressed() {
		return msg.MTI.IsGlobal()
	}
	if n.Flags.Permitted {
		return msg.DestAlias == n.Alias
	}
	if len(msg.Payload) >= 6 {
		return wire.NodeID(msg.Payload) == n.ID
	}
	return msg.DestAlias == n.Alias
}

// Dispatcher is the OpenLCB Main Dispatcher (spec.md 4.11): a single
// non-blocking Step that pops at most one inbound message per call, fans it
// out to every node it targets, and — for an Identify Events query —
// drives a multi-message Identified-event reply burst one message at a
// time across repeated Step calls, exactly like the Login Sequencer's own
// advertisement burst.
type Dispatcher struct {
	nodes   *node.Table
	tx      TxLoader
	inbound *buffer.FIFO
	store   *buffer.Store
	handler Handler
	lock    Locker

	burstNode *node.Node
	burstCons bool // false: still walking producers; true: walking consumers
}

// NewDispatcher builds an OpenLCB Main Dispatcher. lock may be nil.
func NewDispatcher(nodes *node.Table, tx TxLoader, inbound *buffer.FIFO, store *buffer.Store, handler Handler, lock Locker) *Dispatcher {
	return &Dispatcher{nodes: nodes, tx: tx, inbound: inbound, store: store, handler: handler, lock: lock}
}

// Step performs exactly one unit of work, in priority order: finish a
// multi-message Identified-event burst in progress, else pop and dispatch
// one inbound message, else service one node still owed a deferred burst
// (spec.md 4.6's AMEPending counterpart for Identify Events).
func (d *Dispatcher) Step() {
	if !d.tx.Done() {
		return
	}

	if d.burstNode != nil {
		d.continueBurst()
		return
	}

	if d.lock != nil {
		d.lock.Lock()
	}
	rec, ok := d.inbound.Pop()
	if d.lock != nil {
		d.lock.Unlock()
	}
	if ok {
		msg := fromRecord(rec)
		d.dispatch(msg)
		d.store.Free(rec)
		return
	}

	d.serviceDeferredBurst()
}

func (d *Dispatcher) dispatch(msg Message) {
	d.nodes.ForEach(func(n *node.Node) {
		if !targetsNode(n, msg) {
			return
		}
		d.dispatchToNode(n, msg)
	})
}

func (d *Dispatcher) dispatchToNode(n *node.Node, msg Message) {
	switch msg.MTI {
	case MTIVerifyNodeIDGlobal, MTIVerifyNodeIDAddressed:
		d.sendVerifiedNodeID(n)
		d.handler.HandleVerifyNodeID(n, msg)

	case MTIEventsIdentifyGlobal, MTIEventsIdentifyDest:
		d.startOrDeferBurst(n)

	case MTIIdentifyProducer:
		d.replyToIdentify(n, msg, n.Producers, producerMTIFor)
		d.handler.HandleIdentifyProducer(n, msg)

	case MTIIdentifyConsumer:
		d.replyToIdentify(n, msg, n.Consumers, consumerMTIFor)
		d.handler.HandleIdentifyConsumer(n, msg)

	case MTIPCEventReport, MTIPCEventReportWithPayload:
		d.handler.HandleEventReport(n, msg)
	case MTIProtocolSupportInquiry:
		d.handler.HandleProtocolSupportInquiry(n, msg)
	case MTIProtocolSupportReply:
		d.handler.HandleProtocolSupportReply(n, msg)
	case MTISNIPRequest:
		d.handler.HandleSNIPRequest(n, msg)
	case MTISNIPReply:
		d.handler.HandleSNIPReply(n, msg)
	case MTIDatagram:
		d.handler.HandleDatagram(n, msg)
	case MTIDatagramOK:
		d.handler.HandleDatagramOK(n, msg)
	case MTIDatagramRejected:
		d.handler.HandleDatagramRejected(n, msg)
	case MTIStreamInitiateRequest:
		d.handler.HandleStreamInitiateRequest(n, msg)
	case MTIStreamInitiateReply:
		d.handler.HandleStreamInitiateReply(n, msg)
	case MTIStreamSend:
		d.handler.HandleStreamSend(n, msg)
	case MTIStreamProceed:
		d.handler.HandleStreamProceed(n, msg)
	case MTIStreamComplete:
		d.handler.HandleStreamComplete(n, msg)
	case MTITrainControlCommand:
		d.handler.HandleTrainControlCommand(n, msg)
	case MTITrainControlReply, MTITrainSNIPReply:
		d.handler.HandleTrainControlReply(n, msg)
	case MTITerminateDueToError:
		d.handler.HandleTerminateDueToError(n, msg)
	case MTIOptionalInteractionRejected:
		d.handler.HandleOptionalInteractionRejected(n, msg)
	case MTIInitializationComplete, MTIInitializationCompleteSimple, MTIVerifiedNodeID:
		// Other nodes' own login announcements; informational only at this layer.
	default:
		d.handler.HandleUnknown(n, msg)
		if msg.MTI.IsAddressed() {
			d.sendOptionalInteractionRejected(n, msg)
		}
	}
}

func (d *Dispatcher) sendVerifiedNodeID(n *node.Node) {
	payload := make([]byte, 6)
	wire.PutNodeID(payload, n.ID)
	d.tx.Load(&can.OutgoingMessage{SourceAlias: n.Alias, MTI: uint16(MTIVerifiedNodeID), Payload: payload})
}

// notImplementedErrorCode is the standard "permanent error, not implemented"
// code used when rejecting an interaction this node does not support.
const notImplementedErrorCode = 0x1042

func (d *Dispatcher) sendOptionalInteractionRejected(n *node.Node, msg Message) {
	payload := make([]byte, 4)
	payload[0] = byte(notImplementedErrorCode >> 8)
	payload[1] = byte(notImplementedErrorCode & 0xFF)
	payload[2] = byte(msg.MTI >> 8)
	payload[3] = byte(msg.MTI)
	d.tx.Load(&can.OutgoingMessage{
		SourceAlias: n.Alias, DestAlias: msg.SourceAlias, Addressed: true,
		MTI: uint16(MTIOptionalInteractionRejected), Payload: payload,
	})
}

// replyToIdentify answers a single-event Identify Producer/Consumer query
// by scanning events for an exact Event ID match (spec.md 4.11); unlike
// Identify Events Global/Dest this never starts a multi-message burst.
func (d *Dispatcher) replyToIdentify(n *node.Node, msg Message, events []node.Event, mtiFor func(node.EventStatus) MTI) {
	if len(msg.Payload) < 8 {
		return
	}
	want := wire.EventID(msg.Payload)
	for _, ev := range events {
		if ev.ID == want {
			d.tx.Load(eventIdentifiedMessage(n.Alias, ev, mtiFor(ev.Status)))
			return
		}
	}
}

func (d *Dispatcher) startOrDeferBurst(n *node.Node) {
	if d.burstNode != nil {
		n.Flags.IdentifyEventsPending = true
		return
	}
	n.ResetProducerCursor()
	n.ResetConsumerCursor()
	d.burstNode = n
	d.burstCons = false
}

func (d *Dispatcher) continueBurst() {
	n := d.burstNode
	if !d.burstCons {
		if ev, ok := n.NextProducer(); ok {
			d.tx.Load(eventIdentifiedMessage(n.Alias, ev, producerMTIFor(ev.Status)))
			return
		}
		d.burstCons = true
		return
	}
	if ev, ok := n.NextConsumer(); ok {
		d.tx.Load(eventIdentifiedMessage(n.Alias, ev, consumerMTIFor(ev.Status)))
		return
	}
	d.burstNode = nil
	d.burstCons = false
}

func (d *Dispatcher) serviceDeferredBurst() {
	n, ok := d.nodes.GetNext(EnumerationKey)
	if !ok {
		n, ok = d.nodes.GetFirst(EnumerationKey)
		if !ok {
			return
		}
	}
	if n.Flags.IdentifyEventsPending {
		n.Flags.IdentifyEventsPending = false
		d.startOrDeferBurst(n)
	}
}
