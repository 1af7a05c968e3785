// Package datagram implements the reliable datagram transport layered on
// top of OpenLCB datagram messages (spec.md 4.12): the per-pair inbound
// three-state receive transport (IDLE -> RECEIVING -> ACKED/REJECTED) and
// the outbound sender with exponential-backoff retry and reply-pending
// timeout.
package datagram

import (
	"github.com/openlcb/canlink/internal/can"
	"github.com/openlcb/canlink/internal/openlcb"
)

// State is the three-state inbound transport per spec.md 4.12.
type State uint8

const (
	Idle State = iota
	Receiving
	Acked
	Rejected
)

// Rejection error codes (spec.md 7: "categorized 16-bit code"). Values
// follow the real protocol's taxonomy so they read as authentic rather
// than invented: permanent errors in the 0x1xxx range, temporary/resource
// errors in the 0x2xxx range.
const (
	ErrorBufferFull    uint16 = 0x2020
	ErrorPermanent     uint16 = 0x1000
	ErrorNotImplemented uint16 = 0x1042
)

// TxLoader is the same minimal load-one-message-and-report-done
// collaborator used by internal/openlcb.Sequencer, reimplemented locally
// so this package does not have to import openlcb for a two-method shape
// (*can.TxMachine already satisfies it unmodified).
type TxLoader interface {
	Load(msg *can.OutgoingMessage)
	Done() bool
}

// Outcome is how the application handler disposes of a fully-reassembled
// inbound datagram.
type Outcome struct {
	Accept         bool
	ReplyPendingMs uint16 // non-zero: "a reply is coming later", carried in the OK payload
	ErrorCode      uint16 // used when Accept is false
}

type inboundEntry struct {
	used                   bool
	localAlias, remoteAlias uint16
	state                  State
}

// Receiver tracks the inbound three-state transport, one slot per
// concurrently in-flight {local alias, remote alias} pair — spec.md 4.12's
// "exactly one datagram exchange at a time per source-destination node
// pair" (the matching outbound half is Sender).
type Receiver struct {
	tx      TxLoader
	entries []inboundEntry
}

// NewReceiver builds a Receiver with room for capacity concurrent inbound
// exchanges.
func NewReceiver(tx TxLoader, capacity int) *Receiver {
	return &Receiver{tx: tx, entries: make([]inboundEntry, capacity)}
}

func (r *Receiver) find(local, remote uint16) *inboundEntry {
	for i := range r.entries {
		if r.entries[i].used && r.entries[i].localAlias == local && r.entries[i].remoteAlias == remote {
			return &r.entries[i]
		}
	}
	return nil
}

func (r *Receiver) slot(local, remote uint16) *inboundEntry {
	if e := r.find(local, remote); e != nil {
		return e
	}
	for i := range r.entries {
		if !r.entries[i].used {
			r.entries[i] = inboundEntry{used: true, localAlias: local, remoteAlias: remote, state: Idle}
			return &r.entries[i]
		}
	}
	return nil
}

// State reports the current transport state for {local, remote}, or Idle
// if there is no tracked exchange.
func (r *Receiver) State(local, remote uint16) State {
	if e := r.find(local, remote); e != nil {
		return e.state
	}
	return Idle
}

// Complete is called once the final fragment of an inbound datagram has
// been reassembled (the caller — typically an openlcb.Handler.HandleDatagram
// implementation — decides Outcome). It moves the exchange to RECEIVING and
// then immediately to ACKED or REJECTED, emitting the corresponding reply,
// and frees the slot: a datagram exchange completes within a single call,
// it does not span ticks (spec.md 4.12).
func (r *Receiver) Complete(localAlias, remoteAlias uint16, outcome Outcome) {
	e := r.slot(localAlias, remoteAlias)
	if e == nil {
		return
	}
	e.state = Receiving

	if outcome.Accept {
		e.state = Acked
		var payload []byte
		if outcome.ReplyPendingMs > 0 {
			payload = []byte{byte(outcome.ReplyPendingMs >> 8), byte(outcome.ReplyPendingMs)}
		}
		r.tx.Load(&can.OutgoingMessage{
			SourceAlias: localAlias, DestAlias: remoteAlias, Addressed: true,
			MTI: uint16(openlcb.MTIDatagramOK), Payload: payload,
		})
	} else {
		e.state = Rejected
		r.tx.Load(&can.OutgoingMessage{
			SourceAlias: localAlias, DestAlias: remoteAlias, Addressed: true,
			MTI:     uint16(openlcb.MTIDatagramRejected),
			Payload: []byte{byte(outcome.ErrorCode >> 8), byte(outcome.ErrorCode)},
		})
	}
	e.used = false
}

// outboundEntry tracks one in-flight outgoing datagram awaiting
// acknowledgment, including retry backoff and (after an OK-with-pending
// reply) the reply-pending timeout.
type outboundEntry struct {
	used                bool
	localAlias, remoteAlias uint16
	msg                 *can.OutgoingMessage
	attempts            int
	waitTicks           uint16
	awaitingAppReply    bool
}

// Sender drives outgoing datagram retry and reply-pending timeout
// (spec.md 4.12). maxRetries bounds the total number of transmissions,
// the first send included, with exponential backoff between them; once
// exhausted the exchange is abandoned (spec.md 7: transient failures
// are tolerated, not escalated).
type Sender struct {
	tx         TxLoader
	maxRetries int
	entries    []outboundEntry
}

// NewSender builds a Sender with room for capacity concurrent outbound
// exchanges, sending each at most maxRetries times in total.
func NewSender(tx TxLoader, capacity, maxRetries int) *Sender {
	return &Sender{tx: tx, maxRetries: maxRetries, entries: make([]outboundEntry, capacity)}
}

func (s *Sender) find(local, remote uint16) *outboundEntry {
	for i := range s.entries {
		if s.entries[i].used && s.entries[i].localAlias == local && s.entries[i].remoteAlias == remote {
			return &s.entries[i]
		}
	}
	return nil
}

// Send starts a new outbound datagram exchange. It returns false if one is
// already in flight for this {local, remote} pair or no slot is free
// (spec.md 4.12's one-exchange-per-pair invariant).
func (s *Sender) Send(localAlias, remoteAlias uint16, payload []byte) bool {
	if s.find(localAlias, remoteAlias) != nil {
		return false
	}
	for i := range s.entries {
		if s.entries[i].used {
			continue
		}
		msg := &can.OutgoingMessage{SourceAlias: localAlias, DestAlias: remoteAlias, Datagram: true, Payload: payload}
		s.entries[i] = outboundEntry{used: true, localAlias: localAlias, remoteAlias: remoteAlias, msg: msg, attempts: 1, waitTicks: backoffTicks(1)}
		s.tx.Load(msg)
		return true
	}
	return false
}

// HandleReply processes an incoming Datagram OK or Datagram Rejected
// addressed to localAlias from remoteAlias. replyPendingTicks is non-zero
// only for an OK reply that advertised a later application-level reply; in
// that case the exchange stays open until that window elapses (via Tick)
// or the caller observes the reply and calls Clear.
func (s *Sender) HandleReply(localAlias, remoteAlias uint16, accepted bool, replyPendingTicks uint16) {
	e := s.find(localAlias, remoteAlias)
	if e == nil {
		return
	}
	if accepted && replyPendingTicks > 0 {
		e.awaitingAppReply = true
		e.waitTicks = replyPendingTicks
		return
	}
	e.used = false
}

// Clear releases the exchange once its application-level reply has
// actually arrived, before the reply-pending window would have timed it
// out.
func (s *Sender) Clear(localAlias, remoteAlias uint16) {
	if e := s.find(localAlias, remoteAlias); e != nil {
		e.used = false
	}
}

// Tick advances every in-flight exchange's timers by one 100ms tick, then
// retries at most one unacknowledged send whose backoff window has
// elapsed — never more than one per call, since every outgoing message
// shares a single TxLoader slot with the rest of the core (spec.md 4.8's
// one-message-in-flight invariant applies here too).
func (s *Sender) Tick() {
	var retry *outboundEntry
	for i := range s.entries {
		e := &s.entries[i]
		if !e.used {
			continue
		}
		if e.awaitingAppReply {
			if e.waitTicks > 0 {
				e.waitTicks--
			}
			if e.waitTicks == 0 {
				e.used = false
			}
			continue
		}
		if e.waitTicks > 0 {
			e.waitTicks--
			continue
		}
		if e.attempts >= s.maxRetries {
			e.used = false
			continue
		}
		if retry == nil {
			retry = e
		}
	}
	if retry != nil && s.tx.Done() {
		retry.attempts++
		s.tx.Load(retry.msg)
		retry.waitTicks = backoffTicks(retry.attempts)
	}
}

// backoffTicks is the exponential backoff schedule: 2, 4, 8, 16... ticks.
func backoffTicks(attempt int) uint16 {
	return uint16(1) << uint(attempt)
}
