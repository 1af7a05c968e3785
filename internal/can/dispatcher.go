package can

import (
	"github.com/openlcb/canlink/internal/aliastable"
	"github.com/openlcb/canlink/internal/candrv"
	"github.com/openlcb/canlink/internal/login"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
)

// EnumerationKey is the caller-chosen integer the CAN Main Dispatcher uses
// for its node-table enumeration cursor, distinct from any key used by a
// higher-level dispatcher enumerating the same table (spec.md 4.9).
const EnumerationKey = 1

// NodeStepper advances the OpenLCB-level per-node work for nodes that have
// reached LOAD_INITIALIZATION_COMPLETE or later. It is supplied externally so this
// package does not need to depend on the openlcb package; the CAN Main
// Dispatcher only needs to know there is exactly one more unit of work to
// perform per call, not what that work means (spec.md 4.9 step 4/5).
type NodeStepper func(n *node.Node)

// Dispatcher is the CAN Main Dispatcher (spec.md 4.9): a single non-blocking
// Step that performs exactly one unit of work in strict priority order and
// returns. It owns nothing that a higher layer needs concurrent access to;
// every field here is touched only from within Step.
type Dispatcher struct {
	driver  candrv.Driver
	nodes   *node.Table
	aliases *aliastable.Table
	rx      *RxMachine
	appTx   *TxMachine // pending application-level (OpenLCB) outgoing frame
	runOpenLCBStep NodeStepper

	current *node.Node
}

// NewDispatcher builds a CAN Main Dispatcher over the given shared
// resources. runOpenLCBStep is invoked for any node whose CAN alias
// allocation has finished (state LOAD_INITIALIZATION_COMPLETE or later);
// Stack passes the Login Sequencer's Step here.
func NewDispatcher(driver candrv.Driver, nodes *node.Table, aliases *aliastable.Table, rx *RxMachine, appTx *TxMachine, runOpenLCBStep NodeStepper) *Dispatcher {
	return &Dispatcher{driver: driver, nodes: nodes, aliases: aliases, rx: rx, appTx: appTx, runOpenLCBStep: runOpenLCBStep}
}

// Step performs exactly one unit of work (spec.md 4.9):
//  1. service duplicate-alias flags,
//  2. drain any pending application-level outgoing fragment,
//  3. drain any pending login-sequence outgoing frame,
//  4. answer one permitted node's deferred Alias Map Enquiry with an AMD,
//  5/6. advance the current (or next) enumerated node's login or OpenLCB step.
func (d *Dispatcher) Step() {
	if affected := d.aliases.ServiceDuplicates(); len(affected) > 0 {
		for _, id := range affected {
			if n, ok := d.nodes.FindByNodeID(id); ok {
				n.State = node.GenerateSeed
			}
		}
		return
	}

	if d.appTx != nil && !d.appTx.Done() {
		d.appTx.Step(d.driver.TransmitFrame)
		return
	}

	if d.current != nil && d.current.HasPendingLoginFrame {
		if d.driver.IsTxBufferReady() {
			if err := d.driver.TransmitFrame(d.current.PendingLoginFrame); err == nil {
				d.current.HasPendingLoginFrame = false
			}
		}
		return
	}

	if n := d.nextAMEPending(); n != nil {
		if d.driver.IsTxBufferReady() {
			if err := d.driver.TransmitFrame(login.AMDFrame(n.Alias, n.ID)); err == nil {
				n.Flags.AMEPending = false
			}
		}
		return
	}

	if d.current == nil || !sticky(d.current) {
		if d.current == nil {
			d.current, _ = d.nodes.GetFirst(EnumerationKey)
		} else {
			d.current, _ = d.nodes.GetNext(EnumerationKey)
		}
	}
	if d.current == nil {
		return
	}

	if d.current.State < node.LoadInitializationComplete {
		login.Step(d.current, d.aliases)
	} else if d.runOpenLCBStep != nil {
		d.runOpenLCBStep(d.current)
	}
}

// nextAMEPending returns the first permitted node still owed a deferred
// Alias Map Enquiry reply (spec.md 4.6), or nil. Only a permitted node has
// a stable alias worth re-announcing.
func (d *Dispatcher) nextAMEPending() *node.Node {
	var found *node.Node
	d.nodes.ForEach(func(n *node.Node) {
		if found == nil && n.Flags.Permitted && n.Flags.AMEPending {
			found = n
		}
	})
	return found
}

// sticky reports whether n must be revisited on the next Step rather than
// letting the enumeration cursor move on — true while a multi-message
// advertisement burst (producer or consumer event enumeration) is only
// partway through (spec.md 4.10: "keep re-invoking the same node during
// enumeration rather than advancing to the next node").
func sticky(n *node.Node) bool {
	return n.State == node.LoadProducerEvents || n.State == node.LoadConsumerEvents
}

// PollReceive drains the driver's available inbound frames through the Rx
// state machine.
func (d *Dispatcher) PollReceive() (int, error) {
	return d.driver.PollReceive(func(f wire.Frame) {
		d.rx.HandleFrame(f, d.nodes)
	})
}
