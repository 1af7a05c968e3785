package openlcb

import "github.com/openlcb/canlink/internal/node"

// Handler receives every inbound OpenLCB message that targets a node hosted
// by this Stack, fanned out by MTI (spec.md 4.11). It is supplied
// externally, the same externally-supplied-collaborator idiom used for
// candrv.Driver and can.AddressingClassifier: this package knows how to
// route a message to the right node, not what the application does with it.
type Handler interface {
	HandleVerifyNodeID(n *node.Node, msg Message)
	HandleProtocolSupportInquiry(n *node.Node, msg Message)
	HandleProtocolSupportReply(n *node.Node, msg Message)
	HandleSNIPRequest(n *node.Node, msg Message)
	HandleSNIPReply(n *node.Node, msg Message)
	HandleEventReport(n *node.Node, msg Message)
	HandleIdentifyProducer(n *node.Node, msg Message)
	HandleIdentifyConsumer(n *node.Node, msg Message)
	HandleDatagram(n *node.Node, msg Message)
	HandleDatagramOK(n *node.Node, msg Message)
	HandleDatagramRejected(n *node.Node, msg Message)
	HandleStreamInitiateRequest(n *node.Node, msg Message)
	HandleStreamInitiateReply(n *node.Node, msg Message)
	HandleStreamSend(n *node.Node, msg Message)
	HandleStreamProceed(n *node.Node, msg Message)
	HandleStreamComplete(n *node.Node, msg Message)
	HandleTrainControlCommand(n *node.Node, msg Message)
	HandleTrainControlReply(n *node.Node, msg Message)
	HandleTerminateDueToError(n *node.Node, msg Message)
	HandleOptionalInteractionRejected(n *node.Node, msg Message)
	HandleUnknown(n *node.Node, msg Message)
}

// NopHandler implements Handler with every method a no-op, so a caller
// interested in only a few message categories can embed it and override
// just those.
type NopHandler struct{}

func (NopHandler) HandleVerifyNodeID(*node.Node, Message)             {}
func (NopHandler) HandleProtocolSupportInquiry(*node.Node, Message)   {}
func (NopHandler) HandleProtocolSupportReply(*node.Node, Message)     {}
func (NopHandler) HandleSNIPRequest(*node.Node, Message)              {}
func (NopHandler) HandleSNIPReply(*node.Node, Message)                {}
func (NopHandler) HandleEventReport(*node.Node, Message)              {}
func (NopHandler) HandleIdentifyProducer(*node.Node, Message)         {}
func (NopHandler) HandleIdentifyConsumer(*node.Node, Message)         {}
func (NopHandler) HandleDatagram(*node.Node, Message)                 {}
func (NopHandler) HandleDatagramOK(*node.Node, Message)               {}
func (NopHandler) HandleDatagramRejected(*node.Node, Message)         {}
func (NopHandler) HandleStreamInitiateRequest(*node.Node, Message)    {}
func (NopHandler) HandleStreamInitiateReply(*node.Node, Message)      {}
func (NopHandler) HandleStreamSend(*node.Node, Message)               {}
func (NopHandler) HandleStreamProceed(*node.Node, Message)            {}
func (NopHandler) HandleStreamComplete(*node.Node, Message)           {}
func (NopHandler) HandleTrainControlCommand(*node.Node, Message)      {}
func (NopHandler) HandleTrainControlReply(*node.Node, Message)        {}
func (NopHandler) HandleTerminateDueToError(*node.Node, Message)      {}
func (NopHandler) HandleOptionalInteractionRejected(*node.Node, Message) {}
func (NopHandler) HandleUnknown(*node.Node, Message)                  {}
