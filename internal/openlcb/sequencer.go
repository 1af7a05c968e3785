package openlcb

import (
	"github.com/openlcb/canlink/internal/can"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
)

// TxLoader is the subset of can.TxMachine the Login Sequencer needs: load
// one more outgoing message, and report whether the previously loaded one
// has finished transmitting. can.Dispatcher drains whatever is loaded here
// on its own subsequent Steps, so this package never talks to the CAN
// driver directly.
type TxLoader interface {
	Load(msg *can.OutgoingMessage)
	Done() bool
}

// Sequencer drives the post-CAN-login advertisement burst (spec.md 4.10):
// Initialization Complete, then one Producer Identified per producer event,
// then one Consumer Identified per consumer event, then Run. Step performs
// exactly one unit of work — load at most one outgoing message — per call,
// matching every other state machine in this module.
type Sequencer struct {
	tx              TxLoader
	onLoginComplete func(n *node.Node)
}

// NewSequencer builds a Sequencer that loads outgoing advertisement
// messages into tx. onLoginComplete, if non-nil, fires once per node the
// first time it reaches RUN.
func NewSequencer(tx TxLoader, onLoginComplete func(n *node.Node)) *Sequencer {
	return &Sequencer{tx: tx, onLoginComplete: onLoginComplete}
}

// Step advances n by exactly one unit of post-login work. It is a no-op if
// n's state is outside the post-login range (Init, the OpenLCB Main
// Dispatcher or nothing left to do).
func (s *Sequencer) Step(n *node.Node) {
	switch n.State {
	case node.LoadInitializationComplete:
		mti := MTIInitializationComplete
		if n.Params.SimpleProtocol {
			mti = MTIInitializationCompleteSimple
		}
		payload := make([]byte, 6)
		wire.PutNodeID(payload, n.ID)
		s.tx.Load(&can.OutgoingMessage{SourceAlias: n.Alias, MTI: uint16(mti), Payload: payload})
		n.Flags.Initialized = true
		n.ResetProducerCursor()
		n.State = node.LoadProducerEvents

	case node.LoadProducerEvents:
		ev, ok := n.NextProducer()
		if !ok {
			n.ResetConsumerCursor()
			n.State = node.LoadConsumerEvents
			return
		}
		s.tx.Load(eventIdentifiedMessage(n.Alias, ev, producerMTIFor(ev.Status)))

	case node.LoadConsumerEvents:
		ev, ok := n.NextConsumer()
		if !ok {
			n.State = node.LoginComplete
			return
		}
		s.tx.Load(eventIdentifiedMessage(n.Alias, ev, consumerMTIFor(ev.Status)))

	case node.LoginComplete:
		n.State = node.Run
		if s.onLoginComplete != nil {
			s.onLoginComplete(n)
		}
	}
}

func producerMTIFor(status node.EventStatus) MTI {
	switch status {
	case node.EventSet:
		return MTIProducerIdentifiedSet
	case node.EventClear:
		return MTIProducerIdentifiedClear
	case node.EventReserved:
		return MTIProducerIdentifiedReserved
	default:
		return MTIProducerIdentifiedUnknown
	}
}

func consumerMTIFor(status node.EventStatus) MTI {
	switch status {
	case node.EventSet:
		return MTIConsumerIdentifiedSet
	case node.EventClear:
		return MTIConsumerIdentifiedClear
	case node.EventReserved:
		return MTIConsumerIdentifiedReserved
	default:
		return MTIConsumerIdentifiedUnknown
	}
}

func eventIdentifiedMessage(sourceAlias uint16, ev node.Event, mti MTI) *can.OutgoingMessage {
	payload := make([]byte, 8)
	wire.PutEventID(payload, ev.ID)
	return &can.OutgoingMessage{SourceAlias: sourceAlias, MTI: uint16(mti), Payload: payload}
}
