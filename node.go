// Package canlink implements an OpenLCB/LCC CAN-adaptation node stack: CAN
// login (alias allocation and collision handling), the CAN and OpenLCB main
// dispatchers, and the reliable datagram transport, all driven by a single
// non-blocking Tick call (spec.md 1, 5).
package canlink

import (
	"sync"

	"github.com/openlcb/canlink/internal/aliastable"
	"github.com/openlcb/canlink/internal/buffer"
	"github.com/openlcb/canlink/internal/can"
	"github.com/openlcb/canlink/internal/candrv"
	"github.com/openlcb/canlink/internal/datagram"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/openlcb"
	"github.com/openlcb/canlink/internal/openlcb/bclock"
)

// StackParams configures a new Stack. Driver is required; every other field
// falls back to a sensible default (the same defaults the original C
// configuration header hard-coded) when left zero.
type StackParams struct {
	Driver candrv.Driver

	NodeTableDepth   int
	AliasTableDepth  int
	CANFIFODepth     int
	PartialListDepth int
	DatagramCapacity int
	DatagramRetries  int

	// Handler receives every inbound OpenLCB message and datagram (spec.md
	// 4.11, 4.12). A handler that wants to accept or reject an inbound
	// datagram calls back into Stack.Datagrams().Complete from within its
	// HandleDatagram method. Defaults to openlcb.NopHandler{}.
	Handler openlcb.Handler

	// Lock guards the inbound message FIFO against the driver's receive
	// callback when it runs on a different goroutine than Tick (spec.md
	// 5's "caller-supplied lock/unlock pair"). Nil is valid when PollReceive
	// and Tick are never called concurrently.
	Lock sync.Locker

	// Clock, if non-nil, is advanced by one tick on every Stack.Tick call
	// (spec.md 8 scenario 6's Broadcast Time accumulator). Synchronizing it
	// over the bus is an external collaborator's job (spec.md 1); this
	// Stack only owns the accumulator arithmetic.
	Clock *bclock.Clock

	Metrics *Metrics
}

// Stack hosts one or more virtual OpenLCB nodes on a single CAN-adaptation
// bus instance (spec.md 1, 3).
type Stack struct {
	driver candrv.Driver

	nodes   *node.Table
	aliases *aliastable.Table
	store   *buffer.Store
	messages *buffer.FIFO
	datagramsIn *buffer.FIFO
	partials *buffer.PartialList

	rx    *can.RxMachine
	appTx *can.TxMachine
	canDispatch *can.Dispatcher

	sequencer *openlcb.Sequencer
	olDispatch *openlcb.Dispatcher

	dgReceiver *datagram.Receiver
	dgSender   *datagram.Sender

	handler openlcb.Handler
	clock   *bclock.Clock
	metrics *Metrics
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// NewStack builds a Stack ready to host nodes via AddNode.
func NewStack(params StackParams) *Stack {
	nodeDepth := withDefault(params.NodeTableDepth, DefaultNodeTableDepth)
	aliasDepth := withDefault(params.AliasTableDepth, DefaultAliasTableDepth)
	fifoDepth := withDefault(params.CANFIFODepth, DefaultCANFIFODepth)
	partialDepth := withDefault(params.PartialListDepth, DefaultPartialListDepth)
	dgCapacity := withDefault(params.DatagramCapacity, nodeDepth*2)
	dgRetries := withDefault(params.DatagramRetries, DefaultDatagramRetries)

	handler := params.Handler
	if handler == nil {
		handler = openlcb.NopHandler{}
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Stack{
		driver:      params.Driver,
		nodes:       node.New(nodeDepth),
		aliases:     aliastable.New(aliasDepth),
		store:       buffer.NewStore(fifoDepth),
		messages:    buffer.NewFIFO(fifoDepth),
		datagramsIn: buffer.NewFIFO(fifoDepth),
		partials:    buffer.NewPartialList(partialDepth),
		appTx:       &can.TxMachine{},
		handler:     handler,
		clock:       params.Clock,
		metrics:     metrics,
	}

	s.rx = can.NewRxMachine(s.store, s.messages, s.datagramsIn, s.partials, s.aliases, openlcb.IsAddressedMTI)
	s.sequencer = openlcb.NewSequencer(s.appTx, s.onNodeLoginComplete)
	s.canDispatch = can.NewDispatcher(s.driver, s.nodes, s.aliases, s.rx, s.appTx, s.sequencer.Step)
	s.olDispatch = openlcb.NewDispatcher(s.nodes, s.appTx, s.messages, s.store, s.handler, params.Lock)
	s.dgReceiver = datagram.NewReceiver(s.appTx, dgCapacity)
	s.dgSender = datagram.NewSender(s.appTx, dgCapacity, dgRetries)

	return s
}

func (s *Stack) onNodeLoginComplete(n *node.Node) {
	s.metrics.NodesLoggedIn.Add(1)
}

// AddNode allocates a new virtual node hosted by this Stack. It returns an
// *Error with ErrCodeTableFull if the node table has no free slot, or with
// ErrCodeInvalidNodeID if nodeID is zero.
func (s *Stack) AddNode(nodeID uint64, params node.Params) (*node.Node, error) {
	if nodeID == 0 {
		return nil, NewError("AddNode", ErrCodeInvalidNodeID, "node id must be non-zero")
	}
	n, ok := s.nodes.Allocate(nodeID, params)
	if !ok {
		return nil, NewError("AddNode", ErrCodeTableFull, "node table is full")
	}
	return n, nil
}

// Nodes returns the node table, for callers that need to enumerate hosted
// nodes directly (e.g. to inspect login state).
func (s *Stack) Nodes() *node.Table { return s.nodes }

// Datagrams returns the inbound datagram receiver, so an openlcb.Handler
// implementation can call Complete once it has judged an inbound datagram
// (spec.md 4.12).
func (s *Stack) Datagrams() *datagram.Receiver { return s.dgReceiver }

// SendDatagram starts an outbound datagram exchange from localAlias to
// remoteAlias. It returns false if an exchange to that pair is already in
// flight or the sender has no free slot.
func (s *Stack) SendDatagram(localAlias, remoteAlias uint16, payload []byte) bool {
	ok := s.dgSender.Send(localAlias, remoteAlias, payload)
	if ok {
		s.metrics.DatagramsSent.Add(1)
	}
	return ok
}

// HandleDatagramReply feeds an inbound Datagram OK/Rejected addressed to
// one of this Stack's nodes back into the outbound Sender.
func (s *Stack) HandleDatagramReply(localAlias, remoteAlias uint16, accepted bool, replyPendingTicks uint16) {
	s.dgSender.HandleReply(localAlias, remoteAlias, accepted, replyPendingTicks)
}

// Metrics returns this Stack's metrics counters.
func (s *Stack) Metrics() *Metrics { return s.metrics }

// Clock returns the Broadcast Time clock configured for this Stack, or nil
// if none was configured.
func (s *Stack) Clock() *bclock.Clock { return s.clock }

// Tick drives every cooperative state machine this Stack owns by exactly
// one round: poll the driver for inbound frames, advance the CAN Main
// Dispatcher, the OpenLCB Main Dispatcher, the datagram transport, and (if
// configured) the Broadcast Time clock. It never blocks (spec.md 5).
func (s *Stack) Tick() {
	s.nodes.Tick()

	if n, err := s.canDispatch.PollReceive(); err == nil {
		s.metrics.FramesReceived.Add(uint64(n))
	}

	s.canDispatch.Step()

	if s.appTx.Done() {
		s.olDispatch.Step()
	}
	if s.appTx.Done() {
		s.drainInboundDatagram()
	}
	if s.appTx.Done() {
		s.dgSender.Tick()
	}
	if s.clock != nil {
		s.clock.Tick()
	}
}

// drainInboundDatagram pops at most one reassembled inbound datagram and
// fans it out to the configured Handler, mirroring openlcb.Dispatcher's one
// message per call discipline. Datagram payloads arrive on their own FIFO,
// separate from ordinary OpenLCB messages, since RxMachine reassembles them
// without an MTI (spec.md 4.6, 4.12).
func (s *Stack) drainInboundDatagram() {
	rec, ok := s.datagramsIn.Pop()
	if !ok {
		return
	}
	defer s.store.Free(rec)

	n, ok := s.nodes.FindByAlias(rec.DestAlias)
	if !ok {
		return
	}
	s.metrics.DatagramsReceived.Add(1)
	msg := openlcb.Message{
		MTI:         openlcb.MTIDatagram,
		SourceAlias: rec.SourceAlias,
		DestAlias:   rec.DestAlias,
		Payload:     rec.Payload(),
	}
	s.handler.HandleDatagram(n, msg)
}
