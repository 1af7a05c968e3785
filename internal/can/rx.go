// Package can implements the CAN-frame-level state machines that sit
// directly on top of the hardware driver: frame classification and
// reassembly (spec.md 4.6), outgoing fragmentation (spec.md 4.8), and the
// single non-blocking per-tick dispatcher that drives both together with
// the per-node login state machine (spec.md 4.9).
package can

import (
	"github.com/openlcb/canlink/internal/aliastable"
	"github.com/openlcb/canlink/internal/buffer"
	"github.com/openlcb/canlink/internal/constants"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
)

// AddressingClassifier reports whether an OpenLCB MTI addresses a specific
// destination node — consuming the first two payload bytes of its initial
// CAN fragment as a destination alias and participating in multi-frame
// fragmentation via the flag bits in that first byte's top two bits
// (spec.md 4.6, 4.8). It is supplied externally so this package never needs
// to know the OpenLCB MTI catalog, matching the Driver/Handler pattern used
// throughout this module for pluggable collaborators.
type AddressingClassifier func(mti uint16) bool

// RxMachine classifies incoming CAN frames and reassembles multi-frame
// payloads (spec.md 4.6). It has no goroutines of its own: HandleFrame is
// called synchronously from the driver's PollReceive callback or from a
// platform receive thread, per spec.md 5's concurrency model — the only
// mutation surface available to that producer is allocating a record,
// pushing to a FIFO, and setting alias-table flags.
type RxMachine struct {
	store      *buffer.Store
	messages   *buffer.FIFO // completed OpenLCB (and stream) payloads
	datagrams  *buffer.FIFO // completed datagram payloads
	partials   *buffer.PartialList
	aliases    *aliastable.Table
	isAddressed AddressingClassifier
	onReceive  func(wire.Frame)
}

// NewRxMachine builds an RxMachine over the given shared resources. isAddressed
// may be nil, in which case every OpenLCB-type frame is treated as a
// single-frame, unaddressed message (adequate for event-only traffic).
func NewRxMachine(store *buffer.Store, messages, datagrams *buffer.FIFO, partials *buffer.PartialList, aliases *aliastable.Table, isAddressed AddressingClassifier) *RxMachine {
	return &RxMachine{store: store, messages: messages, datagrams: datagrams, partials: partials, aliases: aliases, isAddressed: isAddressed}
}

// SetOnReceive installs an optional notifier invoked for every frame
// accepted by HandleFrame, regardless of category — useful for link-alive
// indicators and traffic counters (spec.md 4.6).
func (m *RxMachine) SetOnReceive(fn func(wire.Frame)) { m.onReceive = fn }

// HandleFrame classifies and processes a single raw CAN frame per the
// decision table in spec.md 4.6. nodes is consulted for duplicate-alias
// flagging and Alias Map Enquiry targeting.
func (m *RxMachine) HandleFrame(f wire.Frame, nodes *node.Table) {
	if m.onReceive != nil {
		defer m.onReceive(f)
	}

	id := f.ID

	if _, ok := id.Type.IsCID(); ok {
		m.checkDuplicate(id.SourceAlias, nodes)
		return
	}

	switch id.Type {
	case wire.FrameTypeControlOther:
		m.handleControlOther(f, nodes)
	case wire.FrameTypeOpenLCB:
		m.handleOpenLCBFragment(f)
	case wire.FrameTypeDatagramOnly, wire.FrameTypeDatagramFirst, wire.FrameTypeDatagramMid, wire.FrameTypeDatagramLast:
		m.handleDatagramFragment(f)
	case wire.FrameTypeStream:
		m.enqueueWhole(m.messages, f.ID.SourceAlias, f.ID.Variable, 0, f.Data)
	}
}

func (m *RxMachine) checkDuplicate(alias uint16, nodes *node.Table) {
	if n, ok := nodes.FindByAlias(alias); ok {
		n.Flags.DuplicateIDDetected = true
		m.aliases.SetDuplicate(alias, true)
	}
}

func (m *RxMachine) handleControlOther(f wire.Frame, nodes *node.Table) {
	id := f.ID
	switch id.Variable {
	case constants.VarRID:
		m.checkDuplicate(id.SourceAlias, nodes)
	case constants.VarAMD:
		if len(f.Data) >= 6 {
			m.aliases.Register(id.SourceAlias, wire.NodeID(f.Data))
		}
		m.checkDuplicate(id.SourceAlias, nodes)
	case constants.VarAME:
		m.handleAME(f, nodes)
	case constants.VarAMR:
		m.aliases.UnregisterByAlias(id.SourceAlias)
	default:
		// Remote error-information reports and anything else
		// control-other carries are informational only.
	}
}

// handleAME marks every matching local node's AMEPending flag so the main
// dispatcher answers with its own AMD on a later tick (spec.md 4.6: "deferred
// reply from main loop"). An AME with no payload queries every local node; one
// with a 6-byte Node ID payload queries only that node.
func (m *RxMachine) handleAME(f wire.Frame, nodes *node.Table) {
	if len(f.Data) >= 6 {
		target := wire.NodeID(f.Data)
		if n, ok := nodes.FindByNodeID(target); ok {
			n.Flags.AMEPending = true
		}
		return
	}
	nodes.ForEach(func(n *node.Node) {
		n.Flags.AMEPending = true
	})
}

func (m *RxMachine) handleOpenLCBFragment(f wire.Frame) {
	id := f.ID
	mti := id.Variable
	addressed := m.isAddressed != nil && m.isAddressed(mti)

	if !addressed {
		m.enqueueWhole(m.messages, id.SourceAlias, mti, 0, f.Data)
		return
	}
	if len(f.Data) < 1 {
		return
	}
	flag := wire.DecodeMultiFrameByte(f.Data[0])

	switch flag {
	case wire.MultiFrameOnly:
		if len(f.Data) < 2 {
			return
		}
		dest := wire.Alias(f.Data[:2])
		m.enqueueWhole(m.messages, id.SourceAlias, mti, dest, f.Data[2:])

	case wire.MultiFrameFirst:
		if len(f.Data) < 2 {
			return
		}
		dest := wire.Alias(f.Data[:2])
		key := buffer.PartialKey{SourceAlias: id.SourceAlias, DestAlias: dest, MTI: mti}
		// Later fragments append to this record, so it comes from the
		// largest tier rather than one sized to this first fragment.
		r, ok := m.store.Allocate(constants.TierSnipBytes)
		if !ok {
			return
		}
		r.SourceAlias, r.DestAlias, r.MTI = id.SourceAlias, dest, mti
		r.AppendPayload(f.Data[2:]...)
		if !m.partials.Add(key, r) {
			m.store.Free(r)
		}

	case wire.MultiFrameMiddle:
		key := buffer.PartialKey{SourceAlias: id.SourceAlias, MTI: mti}
		r := m.findPartialIgnoringDest(key)
		if r == nil {
			return
		}
		r.AppendPayload(f.Data[1:]...)

	case wire.MultiFrameLast:
		key := buffer.PartialKey{SourceAlias: id.SourceAlias, MTI: mti}
		r := m.findPartialIgnoringDest(key)
		if r == nil {
			return
		}
		r.AppendPayload(f.Data[1:]...)
		m.partials.Remove(r)
		if err := m.messages.Push(r); err != nil {
			m.store.Free(r)
		}
	}
}

// findPartialIgnoringDest scans the partial list for an in-flight assembly
// matching source alias and MTI, regardless of destination alias (the
// continuation frames of an addressed message do not repeat the
// destination alias byte, so only the key fields they actually carry are
// matched).
func (m *RxMachine) findPartialIgnoringDest(key buffer.PartialKey) *buffer.Record {
	for i := 0; ; i++ {
		k, r, used, ok := m.partials.At(i)
		if !ok {
			return nil
		}
		if used && k.SourceAlias == key.SourceAlias && k.MTI == key.MTI {
			return r
		}
	}
}

func (m *RxMachine) handleDatagramFragment(f wire.Frame) {
	id := f.ID
	key := buffer.PartialKey{SourceAlias: id.SourceAlias, DestAlias: id.Variable}

	switch id.Type {
	case wire.FrameTypeDatagramOnly:
		m.enqueueWhole(m.datagrams, id.SourceAlias, 0, id.Variable, f.Data)

	case wire.FrameTypeDatagramFirst:
		r, ok := m.store.Allocate(constants.TierDatagramBytes)
		if !ok {
			return
		}
		r.SourceAlias, r.DestAlias = id.SourceAlias, id.Variable
		r.AppendPayload(f.Data...)
		if !m.partials.Add(key, r) {
			m.store.Free(r)
		}

	case wire.FrameTypeDatagramMid:
		if r, ok := m.partials.FindFirst(key); ok {
			r.AppendPayload(f.Data...)
		}

	case wire.FrameTypeDatagramLast:
		r, ok := m.partials.FindFirst(key)
		if !ok {
			return
		}
		r.AppendPayload(f.Data...)
		m.partials.Remove(r)
		if err := m.datagrams.Push(r); err != nil {
			m.store.Free(r)
		}
	}
}

// enqueueWhole allocates a record for a complete (non-fragmented) payload
// and pushes it to fifo, freeing the record if the FIFO is full (spec.md
// 7: transient resource exhaustion is not fatal — the frame is dropped).
func (m *RxMachine) enqueueWhole(fifo *buffer.FIFO, sourceAlias, mti, destAlias uint16, payload []byte) {
	r, ok := m.store.Allocate(len(payload))
	if !ok {
		return
	}
	r.SourceAlias = sourceAlias
	r.DestAlias = destAlias
	r.MTI = mti
	r.AppendPayload(payload...)
	if err := fifo.Push(r); err != nil {
		m.store.Free(r)
	}
}
